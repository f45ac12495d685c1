package posdb

import (
	"sort"
	"strings"

	"github.com/vileopratama/vitech/pkg/types"
)

// AddPartners merges partner records and returns how many were accepted.
// A record for an already-known partner is skipped when its write date does
// not beat the family high-water mark, so replaying an old load is a no-op.
// Any acceptance rebuilds the sorted listing and the search corpus.
func (idx *Index) AddPartners(partners []types.Partner) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	accepted := 0
	newWriteDate := ""
	for i := range partners {
		p := partners[i]
		if _, known := idx.partnerByID[p.ID]; known && stale(idx.partnerWriteDate, p.WriteDate) {
			continue
		}
		newWriteDate = laterWriteDate(newWriteDate, p.WriteDate)
		p.Address = partnerAddress(&p)
		idx.partnerByID[p.ID] = &p
		accepted++
	}
	if newWriteDate != "" {
		idx.partnerWriteDate = laterWriteDate(idx.partnerWriteDate, newWriteDate)
	}
	if accepted > 0 {
		idx.rebuildPartnersLocked()
	}
	return accepted
}

func (idx *Index) rebuildPartnersLocked() {
	idx.partnerByBarcode = make(map[string]*types.Partner, len(idx.partnerByID))
	idx.partnersSorted = idx.partnersSorted[:0]
	for _, p := range idx.partnerByID {
		idx.partnersSorted = append(idx.partnersSorted, p)
		if p.Barcode != "" {
			idx.partnerByBarcode[p.Barcode] = p
		}
	}
	sort.Slice(idx.partnersSorted, func(i, j int) bool {
		a, b := idx.partnersSorted[i], idx.partnersSorted[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	var b strings.Builder
	for _, p := range idx.partnersSorted {
		b.WriteString(partnerSearchEntry(p))
	}
	idx.partnerCorpus = b.String()
}

// partnerAddress derives the one-line display address.
func partnerAddress(p *types.Partner) string {
	parts := make([]string, 0, 4)
	if p.Street != "" {
		parts = append(parts, p.Street)
	}
	if p.Zip != "" || p.City != "" {
		parts = append(parts, strings.TrimSpace(p.Zip+" "+p.City))
	}
	if p.CountryName != "" {
		parts = append(parts, p.CountryName)
	}
	return strings.Join(parts, ", ")
}

func partnerSearchEntry(p *types.Partner) string {
	fields := p.Name
	for _, f := range []string{p.Barcode, p.Address, p.Phone, p.Mobile, p.Email} {
		if f != "" {
			fields += "|" + f
		}
	}
	return corpusEntry(p.ID, fields)
}

// PartnerByID returns a partner, or nil when unknown.
func (idx *Index) PartnerByID(id int) *types.Partner {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.partnerByID[id]
}

// PartnerByBarcode returns the partner holding a loyalty barcode, or nil.
func (idx *Index) PartnerByBarcode(barcode string) *types.Partner {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.partnerByBarcode[barcode]
}

// PartnersSorted returns up to limit partners ordered by name. A
// non-positive limit returns everything.
func (idx *Index) PartnersSorted(limit int) []*types.Partner {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.partnersSorted)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]*types.Partner(nil), idx.partnersSorted[:n]...)
}

// SearchPartners matches query against name, barcode, address, phone,
// mobile and email.
func (idx *Index) SearchPartners(query string) []*types.Partner {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*types.Partner
	for _, id := range searchCorpus(idx.partnerCorpus, query, idx.searchLimit) {
		if p, ok := idx.partnerByID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PartnerWriteDate returns the family high-water write date.
func (idx *Index) PartnerWriteDate() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.partnerWriteDate
}
