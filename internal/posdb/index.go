// Package posdb maintains the in-memory catalog the point of sale queries
// while offline: products, the category tree, partners and settled order
// summaries, each with a substring-search corpus. Bulk loads replace or
// merge records; reads never touch the network.
package posdb

import (
	"sync"
	"time"

	"github.com/vileopratama/vitech/pkg/types"
)

// DefaultSearchLimit caps search results when no explicit limit is set.
const DefaultSearchLimit = 100

// Index is the offline catalog. All methods are safe for concurrent use;
// bulk loads take the write lock, queries the read lock.
type Index struct {
	mu          sync.RWMutex
	searchLimit int

	categoryByID      map[int]*types.Category
	categoryParent    map[int]int
	categoryChildren  map[int][]int
	categoryAncestors map[int][]int

	productByID        map[int]*types.Product
	productByBarcode   map[string]*types.Product
	productByTemplate  map[int]*types.Product
	packagingByBarcode map[string]*types.Packaging
	productsByCategory map[int][]*types.Product
	categoryCorpus     map[int]string

	partnerByID      map[int]*types.Partner
	partnerByBarcode map[string]*types.Partner
	partnersSorted   []*types.Partner
	partnerCorpus    string
	partnerWriteDate string

	orderByID      map[int]*types.OrderSummary
	ordersSorted   []*types.OrderSummary
	orderCorpus    string
	orderWriteDate string
	orderRemoved   map[int]bool

	lineByID      map[int]*types.OrderLineSummary
	linesByOrder  map[int][]*types.OrderLineSummary
	lineCorpus    string
	lineWriteDate string
}

// NewIndex creates an empty Index. A non-positive searchLimit falls back to
// DefaultSearchLimit. The category tree starts with just the root.
func NewIndex(searchLimit int) *Index {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	idx := &Index{
		searchLimit: searchLimit,

		categoryByID:      make(map[int]*types.Category),
		categoryParent:    make(map[int]int),
		categoryChildren:  make(map[int][]int),
		categoryAncestors: make(map[int][]int),

		productByID:        make(map[int]*types.Product),
		productByBarcode:   make(map[string]*types.Product),
		productByTemplate:  make(map[int]*types.Product),
		packagingByBarcode: make(map[string]*types.Packaging),
		productsByCategory: make(map[int][]*types.Product),
		categoryCorpus:     make(map[int]string),

		partnerByID:      make(map[int]*types.Partner),
		partnerByBarcode: make(map[string]*types.Partner),
		partnerWriteDate: types.ZeroWriteDate,

		orderByID:      make(map[int]*types.OrderSummary),
		orderWriteDate: types.ZeroWriteDate,
		orderRemoved:   make(map[int]bool),

		lineByID:      make(map[int]*types.OrderLineSummary),
		linesByOrder:  make(map[int][]*types.OrderLineSummary),
		lineWriteDate: types.ZeroWriteDate,
	}
	idx.categoryByID[types.RootCategoryID] = &types.Category{
		ID:   types.RootCategoryID,
		Name: "Root",
	}
	idx.categoryAncestors[types.RootCategoryID] = nil
	return idx
}

// stale reports whether an incoming record write date loses against the
// family high-water mark. The backend truncates timestamps to the second,
// so anything within one second of the mark is treated as already seen.
// Unparseable dates never block a record.
func stale(highWater, incoming string) bool {
	hw, err := time.Parse(types.WriteDateFormat, highWater)
	if err != nil {
		return false
	}
	in, err := time.Parse(types.WriteDateFormat, incoming)
	if err != nil {
		return false
	}
	return !in.After(hw.Add(time.Second))
}

// laterWriteDate returns the later of two backend timestamps, comparing
// lexically as the backend format sorts chronologically.
func laterWriteDate(a, b string) string {
	if b > a {
		return b
	}
	return a
}
