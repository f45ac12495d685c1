package posdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vileopratama/vitech/pkg/types"
)

func newCatalog(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex(0)
	require.NoError(t, idx.AddCategories([]types.Category{
		{ID: 1, Name: "Drinks", ParentID: 0},
		{ID: 2, Name: "Hot Drinks", ParentID: 1},
		{ID: 3, Name: "Food", ParentID: 0},
	}))
	idx.AddProducts([]types.Product{
		{ID: 10, TemplateID: 110, DisplayName: "Espresso", Price: 2.5, CategoryID: 2, Barcode: "1111"},
		{ID: 11, TemplateID: 111, DisplayName: "Orange Juice", Price: 3.0, CategoryID: 1},
		{ID: 12, TemplateID: 112, DisplayName: "Club Sandwich", Price: 7.5, CategoryID: 3, DefaultCode: "CLUB"},
	})
	return idx
}

func productIDs(products []*types.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestIndex_CategoryTree(t *testing.T) {
	idx := newCatalog(t)

	assert.Equal(t, []int{0, 1}, idx.AncestorsOf(2))
	assert.Empty(t, idx.AncestorsOf(0))
	assert.ElementsMatch(t, []int{1, 3}, idx.ChildrenOf(0))

	assert.True(t, idx.IsProductInCategory(10, 1), "espresso descends from drinks")
	assert.True(t, idx.IsProductInCategory(10, 0), "root contains everything")
	assert.False(t, idx.IsProductInCategory(10, 3))
	assert.True(t, idx.IsProductInCategory(10, 3, 2), "any matching category suffices")
	assert.False(t, idx.IsProductInCategory(10), "no categories matches nothing")
}

func TestIndex_DanglingParentReattachesToRoot(t *testing.T) {
	idx := NewIndex(0)
	require.NoError(t, idx.AddCategories([]types.Category{
		{ID: 5, Name: "Orphan", ParentID: 99},
	}))
	assert.Equal(t, []int{0}, idx.AncestorsOf(5))
}

func TestIndex_CategoryCycleRejected(t *testing.T) {
	idx := NewIndex(0)
	err := idx.AddCategories([]types.Category{
		{ID: 1, Name: "A", ParentID: 2},
		{ID: 2, Name: "B", ParentID: 1},
	})
	assert.ErrorIs(t, err, types.ErrCategoryCycle)

	// The previous tree survives a rejected load.
	assert.NotNil(t, idx.CategoryByID(0))
	assert.Nil(t, idx.CategoryByID(1))
}

func TestIndex_ProductsInCategoryIncludesDescendants(t *testing.T) {
	idx := newCatalog(t)

	assert.Equal(t, []int{10, 11}, productIDs(idx.ProductsInCategory(1)),
		"drinks lists espresso through the hot drinks subcategory, sorted by name")
	assert.Equal(t, []int{12, 10, 11}, productIDs(idx.ProductsInCategory(0)))
}

func TestIndex_ReloadDoesNotDuplicate(t *testing.T) {
	idx := newCatalog(t)

	idx.AddProducts([]types.Product{
		{ID: 10, TemplateID: 110, DisplayName: "Espresso Doppio", Price: 3.5, CategoryID: 2},
	})

	assert.Equal(t, []int{10, 11}, productIDs(idx.ProductsInCategory(1)))
	assert.Equal(t, "Espresso Doppio", idx.ProductByID(10).DisplayName)
	assert.Nil(t, idx.ProductByBarcode("1111"), "rebuilt lookups drop the stale barcode")
}

func TestIndex_PackagingBarcodeFallback(t *testing.T) {
	idx := newCatalog(t)
	idx.AddPackagings([]types.Packaging{
		{ID: 1, TemplateID: 111, Barcode: "6666"},
	})

	direct := idx.ProductByBarcode("1111")
	require.NotNil(t, direct)
	assert.Equal(t, 10, direct.ID)

	viaPackage := idx.ProductByBarcode("6666")
	require.NotNil(t, viaPackage)
	assert.Equal(t, 11, viaPackage.ID)

	assert.Nil(t, idx.ProductByBarcode("0000"))
}

func TestIndex_SearchProducts(t *testing.T) {
	idx := newCatalog(t)

	tests := []struct {
		name     string
		category int
		query    string
		want     []int
	}{
		{name: "case insensitive name", category: 0, query: "espresso", want: []int{10}},
		{name: "scoped to category", category: 3, query: "espresso", want: nil},
		{name: "matches default code", category: 0, query: "CLUB", want: []int{12}},
		{name: "spaces bridge words", category: 0, query: "orange juice", want: []int{11}},
		{name: "metacharacters degrade to wildcards", category: 0, query: "club (sand", want: nil},
		{name: "wildcarded dash still matches", category: 0, query: "club-sandwich", want: []int{12}},
		{name: "no match", category: 0, query: "zzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.SearchProductsInCategory(tt.category, tt.query)
			assert.Equal(t, tt.want, func() []int {
				if got == nil {
					return nil
				}
				return productIDs(got)
			}())
		})
	}
}

func TestIndex_SearchMetacharactersDoNotPanic(t *testing.T) {
	idx := newCatalog(t)
	for _, q := range []string{"(", "[", "a|b", "**", `\`, "a{2,}"} {
		assert.NotPanics(t, func() { idx.SearchProductsInCategory(0, q) }, "query %q", q)
	}
}

func TestIndex_AddPartnersStaleGuard(t *testing.T) {
	idx := NewIndex(0)

	accepted := idx.AddPartners([]types.Partner{
		{ID: 1, Name: "Alice", WriteDate: "2017-04-01 10:00:00"},
		{ID: 2, Name: "Bob", WriteDate: "2017-04-01 10:00:05"},
	})
	assert.Equal(t, 2, accepted)
	assert.Equal(t, "2017-04-01 10:00:05", idx.PartnerWriteDate())

	// Replaying the same load is a no-op for known partners.
	accepted = idx.AddPartners([]types.Partner{
		{ID: 1, Name: "Alice Stale", WriteDate: "2017-04-01 10:00:00"},
	})
	assert.Equal(t, 0, accepted)
	assert.Equal(t, "Alice", idx.PartnerByID(1).Name)

	// A genuinely newer write goes through.
	accepted = idx.AddPartners([]types.Partner{
		{ID: 1, Name: "Alice Cooper", WriteDate: "2017-04-01 10:00:30"},
	})
	assert.Equal(t, 1, accepted)
	assert.Equal(t, "Alice Cooper", idx.PartnerByID(1).Name)
	assert.Equal(t, "2017-04-01 10:00:30", idx.PartnerWriteDate())

	// Unknown partners always land, even with old dates.
	accepted = idx.AddPartners([]types.Partner{
		{ID: 3, Name: "Carol", WriteDate: "2016-01-01 00:00:00"},
	})
	assert.Equal(t, 1, accepted)
}

func TestIndex_PartnerDerivedAddressAndSearch(t *testing.T) {
	idx := NewIndex(0)
	idx.AddPartners([]types.Partner{
		{
			ID: 1, Name: "Acme Corp", Street: "1 Main St", Zip: "10110",
			City: "Jakarta", CountryName: "Indonesia",
			Phone: "021-555-0101", Barcode: "042100005263",
			WriteDate: "2017-04-01 10:00:00",
		},
		{ID: 2, Name: "Zed", WriteDate: "2017-04-01 10:00:01"},
	})

	p := idx.PartnerByID(1)
	require.NotNil(t, p)
	assert.Equal(t, "1 Main St, 10110 Jakarta, Indonesia", p.Address)

	assert.Equal(t, p, idx.PartnerByBarcode("042100005263"))

	found := idx.SearchPartners("jakarta")
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].ID)

	sorted := idx.PartnersSorted(0)
	require.Len(t, sorted, 2)
	assert.Equal(t, "Acme Corp", sorted[0].Name)

	assert.Len(t, idx.PartnersSorted(1), 1)
}

func TestIndex_OrderSummaries(t *testing.T) {
	idx := NewIndex(0)

	accepted := idx.AddOrders([]types.OrderSummary{
		{ID: 1, Name: "Order 00001-003-0001", Partner: "Alice", DateOrder: "2017-04-01 09:00:00", WriteDate: "2017-04-01 09:00:00"},
		{ID: 2, Name: "Order 00001-003-0002", Partner: "Bob", DateOrder: "2017-04-01 11:00:00", WriteDate: "2017-04-01 11:00:00"},
	})
	assert.Equal(t, 2, accepted)

	sorted := idx.OrdersSorted(0)
	require.Len(t, sorted, 2)
	assert.Equal(t, 2, sorted[0].ID, "most recent first")

	found := idx.SearchOrders("alice")
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].ID)

	idx.AddOrderLines([]types.OrderLineSummary{
		{ID: 7, OrderID: 1, Product: "Espresso", Quantity: 2, WriteDate: "2017-04-01 09:00:00"},
		{ID: 8, OrderID: 1, Product: "Juice", Quantity: 1, WriteDate: "2017-04-01 09:00:00"},
	})
	lines := idx.LinesForOrder(1)
	require.Len(t, lines, 2)
	assert.Equal(t, "Espresso", lines[0].Product)

	foundLines := idx.SearchOrderLines("juice")
	require.Len(t, foundLines, 1)
	assert.Equal(t, 8, foundLines[0].ID)
}

func TestIndex_RemovedOrderStaysRemoved(t *testing.T) {
	idx := NewIndex(0)
	load := []types.OrderSummary{
		{ID: 1, Name: "Order A", DateOrder: "2017-04-01 09:00:00", WriteDate: "2017-04-01 09:00:00"},
	}
	idx.AddOrders(load)
	idx.RemoveOrder(1)

	assert.Equal(t, 0, idx.AddOrders(load))
	assert.Nil(t, idx.OrderByID(1))
	assert.Empty(t, idx.OrdersSorted(0))
}
