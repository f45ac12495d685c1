package posdb

import (
	"regexp"
	"strconv"
	"strings"
)

// corpusEntry formats one searchable line: "<id>:<fields>\n" with colons
// stripped from the field text.
func corpusEntry(id int, fields string) string {
	return strconv.Itoa(id) + ":" + strings.ReplaceAll(fields, ":", "") + "\n"
}

// queryMeta matches the characters neutralized before a query becomes a
// regular expression.
var queryMeta = regexp.MustCompile(`[\[\]()+*?.\-!&^$|~_{}:,\\/]`)

// searchCorpus matches query against a corpus and returns up to limit
// record ids, in corpus order. Every regexp metacharacter in the query is
// degraded to a single-character wildcard and spaces match any gap, so a
// typo-ed scan or a partial phrase still finds its record. A query that
// fails to compile finds nothing.
func searchCorpus(corpus, query string, limit int) []int {
	q := queryMeta.ReplaceAllString(query, ".")
	q = strings.ReplaceAll(q, " ", ".+")
	re, err := regexp.Compile("(?i)([0-9]+):.*?" + q)
	if err != nil {
		return nil
	}

	matches := re.FindAllStringSubmatch(corpus, limit)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]int, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
