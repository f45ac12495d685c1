package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/internal/order"
	"github.com/vileopratama/vitech/internal/posdb"
	"github.com/vileopratama/vitech/pkg/types"
)

// fakeFeed serves fixed records and notes the order steps pull them in.
type fakeFeed struct {
	calls        []string
	partnerSince string
	orderSince   string
	failOn       string
}

func (f *fakeFeed) called(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New("backend unavailable")
	}
	return nil
}

func (f *fakeFeed) Currency(context.Context) (types.Currency, error) {
	if err := f.called("currency"); err != nil {
		return types.Currency{}, err
	}
	return types.Currency{Name: "IDR", Symbol: "Rp", Rounding: 0.01}, nil
}

func (f *fakeFeed) Units(context.Context) ([]types.Unit, error) {
	if err := f.called("units"); err != nil {
		return nil, err
	}
	return []types.Unit{
		{ID: 1, Name: "Unit", CategoryID: 1, Rounding: 1},
		{ID: 2, Name: "kg", CategoryID: 2, Rounding: 0.001},
	}, nil
}

func (f *fakeFeed) Taxes(context.Context) ([]types.Tax, error) {
	if err := f.called("taxes"); err != nil {
		return nil, err
	}
	return []types.Tax{
		{ID: 1, Name: "VAT 10%", Amount: 10, AmountType: types.TaxPercent},
		{ID: 2, Name: "Service 5%", Amount: 5, AmountType: types.TaxPercent},
		{ID: 3, Name: "VAT+Service", AmountType: types.TaxGroup, ChildIDs: []int{1, 2}},
	}, nil
}

func (f *fakeFeed) Categories(context.Context) ([]types.Category, error) {
	if err := f.called("categories"); err != nil {
		return nil, err
	}
	return []types.Category{{ID: 1, Name: "Drinks", ParentID: 0}}, nil
}

func (f *fakeFeed) Products(context.Context) ([]types.Product, error) {
	if err := f.called("products"); err != nil {
		return nil, err
	}
	return []types.Product{
		{ID: 10, DisplayName: "Espresso", Price: 100, CategoryID: 1, UnitID: 1},
	}, nil
}

func (f *fakeFeed) Packagings(context.Context) ([]types.Packaging, error) {
	if err := f.called("packagings"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeFeed) Partners(_ context.Context, since string) ([]types.Partner, error) {
	if err := f.called("partners"); err != nil {
		return nil, err
	}
	f.partnerSince = since
	return []types.Partner{{ID: 1, Name: "Alice", WriteDate: "2017-04-01 10:00:00"}}, nil
}

func (f *fakeFeed) FiscalPositions(context.Context) ([]types.FiscalPosition, error) {
	if err := f.called("fiscal_positions"); err != nil {
		return nil, err
	}
	return []types.FiscalPosition{{ID: 1, Name: "Export"}}, nil
}

func (f *fakeFeed) Journals(context.Context) ([]types.Journal, error) {
	if err := f.called("journals"); err != nil {
		return nil, err
	}
	return []types.Journal{
		{ID: 1, Name: "Cash", Type: types.JournalCash, Sequence: 2},
		{ID: 2, Name: "Bank", Type: types.JournalBank, Sequence: 1},
	}, nil
}

func (f *fakeFeed) Registers(context.Context) ([]types.CashRegister, error) {
	if err := f.called("registers"); err != nil {
		return nil, err
	}
	return []types.CashRegister{
		{ID: 1, Name: "Bank Register", JournalID: 2},
		{ID: 2, Name: "Cash Register", JournalID: 1},
	}, nil
}

func (f *fakeFeed) Orders(_ context.Context, since string) ([]types.OrderSummary, error) {
	if err := f.called("orders"); err != nil {
		return nil, err
	}
	f.orderSince = since
	return nil, nil
}

func (f *fakeFeed) OrderLines(context.Context, string) ([]types.OrderLineSummary, error) {
	if err := f.called("order_lines"); err != nil {
		return nil, err
	}
	return nil, nil
}

func newContext(t *testing.T) *Context {
	t.Helper()
	store := localstore.NewStore()
	require.NoError(t, store.Attach(localstore.Config{DataDir: t.TempDir(), InstanceID: "t"}))
	t.Cleanup(func() { store.Detach() })

	return &Context{
		Catalog:  &order.Catalog{Index: posdb.NewIndex(0)},
		Session:  order.NewSession(1, 7, 3),
		Orders:   localstore.NewOrderStore(store, "unpaid_orders", "orders"),
		Checkout: localstore.NewOrderStore(store, "unpaid_checkout_orders", "checkout_orders"),
	}
}

func TestPipeline_RunsStepsSequentially(t *testing.T) {
	lc := newContext(t)
	feed := &fakeFeed{}

	p := NewPipeline(DefaultSteps()...)
	require.NoError(t, p.Run(context.Background(), lc, feed))

	assert.Equal(t, []string{
		"currency", "units", "taxes", "categories", "products", "packagings",
		"partners", "fiscal_positions", "journals", "registers", "orders", "order_lines",
	}, feed.calls)
}

func TestPipeline_Derivations(t *testing.T) {
	lc := newContext(t)
	feed := &fakeFeed{}
	require.NoError(t, NewPipeline(DefaultSteps()...).Run(context.Background(), lc, feed))

	assert.Equal(t, 2, lc.Catalog.Currency.Decimals, "decimals derive from rounding")

	require.NotNil(t, lc.Catalog.UnitByID[1])
	assert.True(t, lc.Catalog.UnitByID[1].Groupable)
	assert.True(t, lc.Catalog.UnitByID[1].IsUnit)
	assert.False(t, lc.Catalog.UnitByID[2].Groupable, "weighed units never merge")

	group := lc.Catalog.TaxByID[3]
	require.NotNil(t, group)
	require.Len(t, group.Children, 2)
	assert.Equal(t, "VAT 10%", group.Children[0].Name)

	require.Len(t, lc.Catalog.Registers, 2)
	assert.Equal(t, "Cash Register", lc.Catalog.Registers[0].Name, "cash registers sort first")
	require.NotNil(t, lc.Catalog.Registers[0].Journal)

	assert.NotNil(t, lc.Catalog.Index.ProductByID(10))
	assert.NotNil(t, lc.Catalog.Index.PartnerByID(1))
	assert.NotNil(t, lc.Catalog.FiscalPositionByID[1])
}

func TestPipeline_IncrementalSince(t *testing.T) {
	lc := newContext(t)
	feed := &fakeFeed{}
	require.NoError(t, NewPipeline(DefaultSteps()...).Run(context.Background(), lc, feed))

	assert.Equal(t, types.ZeroWriteDate, feed.partnerSince, "first load starts from the epoch")
	assert.Equal(t, types.ZeroWriteDate, feed.orderSince)

	// A second run carries the high-water mark forward.
	lc2 := newContext(t)
	lc2.Catalog.Index = lc.Catalog.Index
	feed2 := &fakeFeed{}
	require.NoError(t, NewPipeline(DefaultSteps()...).Run(context.Background(), lc2, feed2))
	assert.Equal(t, "2017-04-01 10:00:00", feed2.partnerSince)
}

func TestPipeline_StopsOnFirstError(t *testing.T) {
	lc := newContext(t)
	feed := &fakeFeed{failOn: "categories"}

	err := NewPipeline(DefaultSteps()...).Run(context.Background(), lc, feed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load categories")
	assert.Equal(t, []string{"currency", "units", "taxes", "categories"}, feed.calls,
		"nothing runs past the failure")
}

func TestPipeline_InsertBeforeAfter(t *testing.T) {
	ran := []string{}
	mk := func(name string) Step {
		return Step{Name: name, Run: func(context.Context, *Context, Feed) error {
			ran = append(ran, name)
			return nil
		}}
	}

	p := NewPipeline(mk("a"), mk("c"))
	require.NoError(t, p.InsertBefore("c", mk("b")))
	require.NoError(t, p.InsertAfter("c", mk("d")))
	assert.Equal(t, []string{"a", "b", "c", "d"}, p.Steps())

	require.NoError(t, p.Run(context.Background(), &Context{}, nil))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ran)

	assert.ErrorIs(t, p.InsertBefore("zz", mk("x")), types.ErrNotFound)
	assert.ErrorIs(t, p.InsertAfter("zz", mk("x")), types.ErrNotFound)
}

func TestPipeline_RestoresDraftsAndSequence(t *testing.T) {
	lc := newContext(t)
	feed := &fakeFeed{}
	require.NoError(t, NewPipeline(DefaultSteps()...).Run(context.Background(), lc, feed))

	// Build a draft and a settled order, then reload as a fresh session.
	o := order.NewOrder(lc.Session, lc.Catalog, lc.Orders)
	_, err := o.AddProduct(10, order.LineOptions{})
	require.NoError(t, err)
	require.NoError(t, o.Persist())

	settled := order.NewOrder(lc.Session, lc.Catalog, lc.Orders)
	_, err = settled.AddProduct(10, order.LineOptions{})
	require.NoError(t, err)
	_, err = settled.Finalize()
	require.NoError(t, err)

	lc2 := newContext(t)
	lc2.Catalog.Index = lc.Catalog.Index
	lc2.Orders = lc.Orders
	lc2.Checkout = lc.Checkout
	require.NoError(t, NewPipeline(DefaultSteps()...).Run(context.Background(), lc2, &fakeFeed{}))

	require.Len(t, lc2.Restored, 1)
	assert.Equal(t, o.UID(), lc2.Restored[0].UID())
	assert.Equal(t, "00001-003-0003", lc2.Session.NextUID(),
		"the sequence resumes past both the draft and the settled order")
}
