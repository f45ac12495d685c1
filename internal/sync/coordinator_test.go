package sync

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

// fakeRemote deduplicates by uid like the real backend: a record it has
// already applied is acknowledged again without a second application.
type fakeRemote struct {
	applied     map[string]int
	failures    int
	rejectWith  error
	gotBatches  [][]string
	checkoutUID []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{applied: map[string]int{}}
}

func (f *fakeRemote) push(records []localstore.OrderRecord) error {
	uids := make([]string, 0, len(records))
	for _, r := range records {
		uids = append(uids, r.ID)
	}
	f.gotBatches = append(f.gotBatches, uids)

	if f.rejectWith != nil {
		return f.rejectWith
	}

	// Apply first, then maybe lose the acknowledgement.
	for _, r := range records {
		if _, seen := f.applied[r.ID]; seen {
			continue
		}
		f.applied[r.ID]++
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return nil
}

func (f *fakeRemote) CreateOrders(_ context.Context, records []localstore.OrderRecord) error {
	return f.push(records)
}

func (f *fakeRemote) UpdateCheckoutOrders(_ context.Context, records []localstore.OrderRecord) error {
	for _, r := range records {
		f.checkoutUID = append(f.checkoutUID, r.XID)
	}
	return f.push(records)
}

type fakeInvoicer struct {
	invoiced []string
	err      error
}

func (f *fakeInvoicer) Invoice(_ context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	f.invoiced = append(f.invoiced, uid)
	return nil
}

type fixture struct {
	catalog  *order.Catalog
	session  *order.Session
	orders   *localstore.OrderStore
	checkout *localstore.OrderStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idx := posdb.NewIndex(0)
	idx.AddProducts([]types.Product{
		{ID: 10, DisplayName: "Espresso", Price: 100, UnitID: 1},
	})
	idx.AddPartners([]types.Partner{
		{ID: 1, Name: "Alice", WriteDate: "2017-04-01 10:00:00"},
	})
	catalog := &order.Catalog{
		Index: idx,
		UnitByID: map[int]*types.Unit{
			1: {ID: 1, Name: "Unit", Groupable: true, IsUnit: true, Rounding: 1},
		},
		Registers: []*types.CashRegister{
			{ID: 1, Name: "Cash", JournalID: 1, Journal: &types.Journal{ID: 1, Type: types.JournalCash}},
		},
		Currency: types.Currency{Rounding: 0.01, Decimals: 2},
	}

	store := localstore.NewStore()
	require.NoError(t, store.Attach(localstore.Config{DataDir: t.TempDir(), InstanceID: "t"}))
	t.Cleanup(func() { store.Detach() })

	return &fixture{
		catalog:  catalog,
		session:  order.NewSession(1, 7, 3),
		orders:   localstore.NewOrderStore(store, "unpaid_orders", "orders"),
		checkout: localstore.NewOrderStore(store, "unpaid_checkout_orders", "checkout_orders"),
	}
}

func (fx *fixture) newPaidOrder(t *testing.T) *order.Order {
	t.Helper()
	o := order.NewOrder(fx.session, fx.catalog, fx.orders)
	_, err := o.AddProduct(10, order.LineOptions{})
	require.NoError(t, err)
	i, err := o.AddPayment(1)
	require.NoError(t, err)
	require.NoError(t, o.SetPaymentAmount(i, o.Due()))
	return o
}

func TestCoordinator_PushOrderFlushesQueue(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{})

	o := fx.newPaidOrder(t)
	require.NoError(t, c.PushOrder(context.Background(), o))

	require.Len(t, remote.gotBatches, 1)
	assert.Equal(t, []string{o.UID()}, remote.gotBatches[0])
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, StateConnected, c.Status().State)
}

func TestCoordinator_PushFailureKeepsQueue(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	remote.failures = 1
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{})

	o := fx.newPaidOrder(t)

	// The push itself reports success: the order is safely queued.
	require.NoError(t, c.PushOrder(context.Background(), o))
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, StateDisconnected, c.Status().State)

	// The retry flushes the same batch.
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, c.Pending())
	require.Len(t, remote.gotBatches, 2)
	assert.Equal(t, remote.gotBatches[0], remote.gotBatches[1])
}

func TestCoordinator_LostAckDoesNotDuplicate(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	remote.failures = 1 // apply, then lose the acknowledgement
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{})

	o := fx.newPaidOrder(t)
	require.NoError(t, c.PushOrder(context.Background(), o))
	require.NoError(t, c.Flush(context.Background()))

	assert.Equal(t, 1, remote.applied[o.UID()], "backend dedup absorbs the replay")
	assert.Equal(t, 0, c.Pending())
}

func TestCoordinator_FlushBatchesWholeQueue(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	remote.failures = 2
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{})

	first := fx.newPaidOrder(t)
	second := fx.newPaidOrder(t)
	require.NoError(t, c.PushOrder(context.Background(), first))
	require.NoError(t, c.PushOrder(context.Background(), second))
	assert.Equal(t, 2, c.Pending())

	require.NoError(t, c.Flush(context.Background()))
	last := remote.gotBatches[len(remote.gotBatches)-1]
	assert.Equal(t, []string{first.UID(), second.UID()}, last, "retry pushes the entire pending set")
	assert.Equal(t, 0, c.Pending())
}

func TestCoordinator_CheckoutQueueUsesUpdate(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{})

	o := order.NewCheckoutOrder(fx.session, fx.catalog, fx.checkout, order.CheckoutSeed{
		XID:          "lounge.order/41",
		TotalPayment: 100,
	})
	require.NoError(t, c.PushOrder(context.Background(), o))

	assert.Equal(t, []string{"lounge.order/41"}, remote.checkoutUID)
	assert.Equal(t, 0, c.Pending())
}

func TestCoordinator_BusinessRejectionReadsAsError(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	remote.rejectWith = &types.RemoteError{Code: types.BusinessRejectionCode, Message: "session closed"}
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{})

	o := fx.newPaidOrder(t)
	require.NoError(t, c.PushOrder(context.Background(), o))

	assert.Equal(t, StateError, c.Status().State)
	assert.Equal(t, 1, c.Pending(), "rejected orders stay queued")
}

func TestCoordinator_PushAndInvoice(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	invoicer := &fakeInvoicer{}
	c := NewCoordinator(remote, invoicer, fx.orders, fx.checkout, Config{})

	t.Run("missing customer fails fast", func(t *testing.T) {
		o := fx.newPaidOrder(t)
		err := c.PushAndInvoice(context.Background(), o)
		assert.ErrorIs(t, err, types.ErrMissingCustomer)
		assert.False(t, o.Finalized(), "nothing queued before the check")
		assert.Empty(t, remote.gotBatches)
	})

	t.Run("happy path invoices the pushed uid", func(t *testing.T) {
		o := fx.newPaidOrder(t)
		require.NoError(t, o.SetCustomer(1))
		require.NoError(t, c.PushAndInvoice(context.Background(), o))
		assert.Equal(t, []string{o.UID()}, invoicer.invoiced)
		assert.True(t, o.ToInvoice())
	})

	t.Run("push failure propagates", func(t *testing.T) {
		remote.failures = 1
		o := fx.newPaidOrder(t)
		require.NoError(t, o.SetCustomer(1))
		err := c.PushAndInvoice(context.Background(), o)
		assert.Error(t, err)
		assert.Equal(t, 1, c.Pending(), "the order stays queued for a later flush")
	})
}

func TestCoordinator_PushAndInvoiceSubmitsSingleOrder(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()
	remote.failures = 1
	invoicer := &fakeInvoicer{}
	c := NewCoordinator(remote, invoicer, fx.orders, fx.checkout, Config{})

	stuck := fx.newPaidOrder(t)
	require.NoError(t, c.PushOrder(context.Background(), stuck))
	require.Equal(t, 1, c.Pending())

	o := fx.newPaidOrder(t)
	require.NoError(t, o.SetCustomer(1))
	require.NoError(t, c.PushAndInvoice(context.Background(), o))

	last := remote.gotBatches[len(remote.gotBatches)-1]
	assert.Equal(t, []string{o.UID()}, last, "the invoice submission carries exactly one order")
	assert.Equal(t, 1, c.Pending(), "the stuck order waits for the next flush")
	assert.Equal(t, []string{o.UID()}, invoicer.invoiced)
}

func TestCoordinator_StatusHookObservesTransitions(t *testing.T) {
	fx := newFixture(t)
	remote := newFakeRemote()

	var states []State
	c := NewCoordinator(remote, nil, fx.orders, fx.checkout, Config{
		OnStatus: func(s Status) { states = append(states, s.State) },
	})

	o := fx.newPaidOrder(t)
	require.NoError(t, c.PushOrder(context.Background(), o))
	assert.Equal(t, []State{StateConnecting, StateConnected}, states)
}
