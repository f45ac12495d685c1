package posdb

import (
	"sort"
	"strings"

	"github.com/vileopratama/vitech/pkg/types"
)

// AddOrders merges settled order summaries and returns how many were
// accepted. The same stale-write guard as AddPartners applies; summaries
// removed locally stay removed even if an old load replays them.
func (idx *Index) AddOrders(orders []types.OrderSummary) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	accepted := 0
	newWriteDate := ""
	for i := range orders {
		o := orders[i]
		if idx.orderRemoved[o.ID] {
			continue
		}
		if _, known := idx.orderByID[o.ID]; known && stale(idx.orderWriteDate, o.WriteDate) {
			continue
		}
		newWriteDate = laterWriteDate(newWriteDate, o.WriteDate)
		idx.orderByID[o.ID] = &o
		accepted++
	}
	if newWriteDate != "" {
		idx.orderWriteDate = laterWriteDate(idx.orderWriteDate, newWriteDate)
	}
	if accepted > 0 {
		idx.rebuildOrdersLocked()
	}
	return accepted
}

// RemoveOrder drops a summary and tombstones its id so stale reloads do not
// resurrect it.
func (idx *Index) RemoveOrder(id int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.orderByID[id]; !ok {
		idx.orderRemoved[id] = true
		return
	}
	delete(idx.orderByID, id)
	idx.orderRemoved[id] = true
	idx.rebuildOrdersLocked()
}

func (idx *Index) rebuildOrdersLocked() {
	idx.ordersSorted = idx.ordersSorted[:0]
	for _, o := range idx.orderByID {
		idx.ordersSorted = append(idx.ordersSorted, o)
	}
	// Most recent first.
	sort.Slice(idx.ordersSorted, func(i, j int) bool {
		a, b := idx.ordersSorted[i], idx.ordersSorted[j]
		if a.DateOrder != b.DateOrder {
			return a.DateOrder > b.DateOrder
		}
		return a.ID > b.ID
	})

	var b strings.Builder
	for _, o := range idx.ordersSorted {
		b.WriteString(orderSearchEntry(o))
	}
	idx.orderCorpus = b.String()
}

func orderSearchEntry(o *types.OrderSummary) string {
	fields := o.Name
	for _, f := range []string{o.Partner, o.DateOrder} {
		if f != "" {
			fields += "|" + f
		}
	}
	return corpusEntry(o.ID, fields)
}

// AddOrderLines merges settled order line summaries, guarded like AddOrders.
func (idx *Index) AddOrderLines(lines []types.OrderLineSummary) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	accepted := 0
	newWriteDate := ""
	for i := range lines {
		l := lines[i]
		if _, known := idx.lineByID[l.ID]; known && stale(idx.lineWriteDate, l.WriteDate) {
			continue
		}
		newWriteDate = laterWriteDate(newWriteDate, l.WriteDate)
		idx.lineByID[l.ID] = &l
		accepted++
	}
	if newWriteDate != "" {
		idx.lineWriteDate = laterWriteDate(idx.lineWriteDate, newWriteDate)
	}
	if accepted > 0 {
		idx.rebuildOrderLinesLocked()
	}
	return accepted
}

func (idx *Index) rebuildOrderLinesLocked() {
	idx.linesByOrder = make(map[int][]*types.OrderLineSummary)
	ids := make([]int, 0, len(idx.lineByID))
	for id := range idx.lineByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		l := idx.lineByID[id]
		idx.linesByOrder[l.OrderID] = append(idx.linesByOrder[l.OrderID], l)
		b.WriteString(corpusEntry(l.ID, l.Product))
	}
	idx.lineCorpus = b.String()
}

// OrderByID returns a settled order summary, or nil when unknown.
func (idx *Index) OrderByID(id int) *types.OrderSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.orderByID[id]
}

// OrdersSorted returns up to limit summaries, most recent first. A
// non-positive limit returns everything.
func (idx *Index) OrdersSorted(limit int) []*types.OrderSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.ordersSorted)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]*types.OrderSummary(nil), idx.ordersSorted[:n]...)
}

// SearchOrders matches query against order name, partner and date.
func (idx *Index) SearchOrders(query string) []*types.OrderSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*types.OrderSummary
	for _, id := range searchCorpus(idx.orderCorpus, query, idx.searchLimit) {
		if o, ok := idx.orderByID[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// LinesForOrder returns the line summaries of a settled order, in id order.
func (idx *Index) LinesForOrder(orderID int) []*types.OrderLineSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]*types.OrderLineSummary(nil), idx.linesByOrder[orderID]...)
}

// SearchOrderLines matches query against line product names.
func (idx *Index) SearchOrderLines(query string) []*types.OrderLineSummary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*types.OrderLineSummary
	for _, id := range searchCorpus(idx.lineCorpus, query, idx.searchLimit) {
		if l, ok := idx.lineByID[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// OrderWriteDate returns the settled-order family high-water write date.
func (idx *Index) OrderWriteDate() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.orderWriteDate
}

// OrderLineWriteDate returns the line family high-water write date.
func (idx *Index) OrderLineWriteDate() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.lineWriteDate
}
