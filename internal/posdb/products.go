package posdb

import (
	"sort"
	"strings"

	"github.com/vileopratama/vitech/pkg/types"
)

// AddProducts merges products into the catalog. The per-category listings
// and search corpora are rebuilt from scratch on every call, so re-loading
// a product moves it rather than duplicating it.
func (idx *Index) AddProducts(products []types.Product) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range products {
		p := products[i]
		idx.productByID[p.ID] = &p
	}
	idx.rebuildProductsLocked()
}

// AddPackagings registers package barcodes that resolve to a product
// template when the product itself has no matching barcode.
func (idx *Index) AddPackagings(packagings []types.Packaging) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range packagings {
		pk := packagings[i]
		if pk.Barcode == "" {
			continue
		}
		idx.packagingByBarcode[pk.Barcode] = &pk
	}
}

// rebuildProductsLocked recomputes barcode and template lookups, the
// per-category listings and the per-category search corpora. The caller
// must hold the write lock.
func (idx *Index) rebuildProductsLocked() {
	idx.productByBarcode = make(map[string]*types.Product, len(idx.productByID))
	idx.productByTemplate = make(map[int]*types.Product, len(idx.productByID))
	idx.productsByCategory = make(map[int][]*types.Product)
	idx.categoryCorpus = make(map[int]string)

	ids := make([]int, 0, len(idx.productByID))
	for id := range idx.productByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var corpus = make(map[int]*strings.Builder)
	appendTo := func(categoryID int, p *types.Product, entry string) {
		idx.productsByCategory[categoryID] = append(idx.productsByCategory[categoryID], p)
		b, ok := corpus[categoryID]
		if !ok {
			b = &strings.Builder{}
			corpus[categoryID] = b
		}
		b.WriteString(entry)
	}

	for _, id := range ids {
		p := idx.productByID[id]
		if p.Barcode != "" {
			idx.productByBarcode[p.Barcode] = p
		}
		if p.TemplateID != 0 {
			idx.productByTemplate[p.TemplateID] = p
		}

		entry := productSearchEntry(p)
		categoryID := p.CategoryID
		if _, ok := idx.categoryByID[categoryID]; !ok {
			categoryID = types.RootCategoryID
		}
		if categoryID != types.RootCategoryID {
			appendTo(categoryID, p, entry)
			for _, ancestor := range idx.categoryAncestors[categoryID] {
				if ancestor == types.RootCategoryID {
					continue
				}
				appendTo(ancestor, p, entry)
			}
		}
		appendTo(types.RootCategoryID, p, entry)
	}

	for categoryID, b := range corpus {
		idx.categoryCorpus[categoryID] = b.String()
	}
	for categoryID := range idx.productsByCategory {
		list := idx.productsByCategory[categoryID]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].DisplayName != list[j].DisplayName {
				return list[i].DisplayName < list[j].DisplayName
			}
			return list[i].ID < list[j].ID
		})
	}
}

// productSearchEntry builds one corpus line. Colons inside field values are
// stripped so the id prefix stays the only colon on the line.
func productSearchEntry(p *types.Product) string {
	fields := p.DisplayName
	if p.Barcode != "" {
		fields += "|" + p.Barcode
	}
	if p.DefaultCode != "" {
		fields += "|" + p.DefaultCode
	}
	if p.Description != "" {
		fields += "|" + p.Description
	}
	if p.DescriptionSale != "" {
		fields += "|" + p.DescriptionSale
	}
	return corpusEntry(p.ID, fields)
}

// ProductByID returns a product, or nil when unknown.
func (idx *Index) ProductByID(id int) *types.Product {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.productByID[id]
}

// ProductByBarcode resolves a scanned barcode to a product, falling back to
// package barcodes resolved through the product template. Returns nil when
// nothing matches.
func (idx *Index) ProductByBarcode(barcode string) *types.Product {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if p, ok := idx.productByBarcode[barcode]; ok {
		return p
	}
	if pk, ok := idx.packagingByBarcode[barcode]; ok {
		if p, ok := idx.productByTemplate[pk.TemplateID]; ok {
			return p
		}
	}
	return nil
}

// ProductsInCategory returns the products listed under the category and all
// of its descendants, sorted by display name. The root lists everything.
func (idx *Index) ProductsInCategory(categoryID int) []*types.Product {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]*types.Product(nil), idx.productsByCategory[categoryID]...)
}

// SearchProductsInCategory matches query against the category's corpus.
// An empty or unmatchable query returns nil.
func (idx *Index) SearchProductsInCategory(categoryID int, query string) []*types.Product {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*types.Product
	for _, id := range searchCorpus(idx.categoryCorpus[categoryID], query, idx.searchLimit) {
		if p, ok := idx.productByID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
