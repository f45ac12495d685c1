// Package sync pushes settled orders to the backend. Orders queue durably
// in the local store and are flushed whole batches at a time; a flush that
// dies before the acknowledgement simply leaves the batch queued, so the
// same order may reach the backend twice and the remote service must
// deduplicate by uid.
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/internal/order"
	"github.com/vileopratama/vitech/pkg/types"
)

// RemoteService is the backend endpoint orders are pushed to.
//
// Both methods receive the full pending batch and must be idempotent:
// a record whose uid the backend has already accepted is acknowledged
// again without creating a duplicate. This contract is what makes the
// at-least-once flush safe.
type RemoteService interface {
	// CreateOrders pushes settled counter orders.
	CreateOrders(ctx context.Context, records []localstore.OrderRecord) error

	// UpdateCheckoutOrders pushes settled checkout orders, addressed to
	// their booking via the record XID.
	UpdateCheckoutOrders(ctx context.Context, records []localstore.OrderRecord) error
}

// Invoicer turns a pushed order into a backend invoice document.
type Invoicer interface {
	Invoice(ctx context.Context, uid string) error
}

// Connection states reported through Status.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

// Status is the coordinator's externally visible condition.
type Status struct {
	State   State
	Pending int
}

// Config tunes a Coordinator.
type Config struct {
	// BaseTimeout bounds one pushed record; a batch of n records gets
	// n times this. InvoiceTimeout bounds the invoice round trip.
	BaseTimeout    time.Duration
	InvoiceTimeout time.Duration

	// OnStatus, when set, observes every status change. It is called
	// synchronously; keep it fast.
	OnStatus func(Status)
}

// DefaultBaseTimeout and DefaultInvoiceTimeout apply when Config leaves
// them zero.
const (
	DefaultBaseTimeout    = 7500 * time.Millisecond
	DefaultInvoiceTimeout = 30 * time.Second
)

// Coordinator owns the push pipeline. Flushes are serialized by a mutex:
// two concurrent pushes cannot interleave batches.
type Coordinator struct {
	remote   RemoteService
	invoicer Invoicer
	orders   *localstore.OrderStore
	checkout *localstore.OrderStore

	baseTimeout    time.Duration
	invoiceTimeout time.Duration

	flushMu sync.Mutex

	statusMu sync.Mutex
	status   Status
	onStatus func(Status)
}

// NewCoordinator wires a coordinator over the two settled-order queues.
// The invoicer may be nil when invoicing is not configured.
func NewCoordinator(remote RemoteService, invoicer Invoicer, orders, checkout *localstore.OrderStore, cfg Config) *Coordinator {
	if cfg.BaseTimeout <= 0 {
		cfg.BaseTimeout = DefaultBaseTimeout
	}
	if cfg.InvoiceTimeout <= 0 {
		cfg.InvoiceTimeout = DefaultInvoiceTimeout
	}
	return &Coordinator{
		remote:         remote,
		invoicer:       invoicer,
		orders:         orders,
		checkout:       checkout,
		baseTimeout:    cfg.BaseTimeout,
		invoiceTimeout: cfg.InvoiceTimeout,
		status:         Status{State: StateConnecting},
		onStatus:       cfg.OnStatus,
	}
}

// Status returns the last reported status.
func (c *Coordinator) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

func (c *Coordinator) setState(state State) {
	pending := 0
	if n, err := c.orders.PendingCount(); err == nil {
		pending += n
	}
	if c.checkout != nil {
		if n, err := c.checkout.PendingCount(); err == nil {
			pending += n
		}
	}

	c.statusMu.Lock()
	c.status = Status{State: state, Pending: pending}
	status := c.status
	hook := c.onStatus
	c.statusMu.Unlock()

	if hook != nil {
		hook(status)
	}
}

// PushOrder finalizes the order into the durable queue and flushes the
// whole queue. Queueing errors are returned; push errors are not, because
// the order is safely queued and a later flush retries it.
func (c *Coordinator) PushOrder(ctx context.Context, o *order.Order) error {
	if _, err := o.Finalize(); err != nil {
		return err
	}
	_ = c.Flush(ctx)
	return nil
}

// PushAndInvoice finalizes the order, submits it alone and asks the
// backend for the invoice document. Unlike PushOrder every failure is
// returned, because the caller is waiting on the document: the batch
// holds exactly this order, bounded by the invoice timeout, so a stuck
// order elsewhere in the queue cannot block it. An order without a
// customer fails with ErrMissingCustomer before anything is queued or
// sent.
func (c *Coordinator) PushAndInvoice(ctx context.Context, o *order.Order) error {
	if o.Customer() == nil {
		return types.ErrMissingCustomer
	}
	if err := o.SetToInvoice(true); err != nil {
		return err
	}
	record, err := o.Finalize()
	if err != nil {
		return err
	}
	if err := c.pushOne(ctx, o, record); err != nil {
		return err
	}
	if c.invoicer == nil {
		return nil
	}

	ictx, cancel := context.WithTimeout(ctx, c.invoiceTimeout)
	defer cancel()
	return c.invoicer.Invoice(ictx, o.UID())
}

// pushOne submits a single settled order, leaving the rest of the queue
// for a later flush.
func (c *Coordinator) pushOne(ctx context.Context, o *order.Order, record localstore.OrderRecord) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	queue, push := c.orders, c.remote.CreateOrders
	if o.IsCheckout() {
		queue, push = c.checkout, c.remote.UpdateCheckoutOrders
	}

	c.setState(StateConnecting)
	bctx, cancel := context.WithTimeout(ctx, c.invoiceTimeout)
	defer cancel()
	if err := push(bctx, []localstore.OrderRecord{record}); err != nil {
		c.fail(err)
		return err
	}
	if err := queue.RemoveSettled(record.ID); err != nil {
		return err
	}
	c.setState(StateConnected)
	return nil
}

// Flush pushes every queued order, counter queue first. Whatever the
// outcome the queues keep anything unacknowledged. Flushes serialize:
// concurrent callers wait their turn and never interleave batches.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.setState(StateConnecting)

	if err := c.flushQueue(ctx, c.orders, c.remote.CreateOrders); err != nil {
		c.fail(err)
		return err
	}
	if c.checkout != nil {
		if err := c.flushQueue(ctx, c.checkout, c.remote.UpdateCheckoutOrders); err != nil {
			c.fail(err)
			return err
		}
	}

	c.setState(StateConnected)
	return nil
}

// flushQueue pushes one queue's full pending batch and clears it on
// acknowledgement.
func (c *Coordinator) flushQueue(ctx context.Context, queue *localstore.OrderStore, push func(context.Context, []localstore.OrderRecord) error) error {
	batch, err := queue.LoadSettled()
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	bctx, cancel := context.WithTimeout(ctx, time.Duration(len(batch))*c.baseTimeout)
	defer cancel()
	if err := push(bctx, batch); err != nil {
		return err
	}

	// Acknowledged: the batch is the backend's problem now.
	for _, record := range batch {
		if err := queue.RemoveSettled(record.ID); err != nil {
			return err
		}
	}
	return nil
}

// fail reports a push failure. A structured business rejection surfaces as
// an error state; anything else reads as the backend being unreachable.
func (c *Coordinator) fail(err error) {
	var remoteErr *types.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.IsBusinessRejection() {
		c.setState(StateError)
		return
	}
	c.setState(StateDisconnected)
}

// Pending reports how many settled orders await acknowledgement across
// both queues.
func (c *Coordinator) Pending() int {
	pending := 0
	if n, err := c.orders.PendingCount(); err == nil {
		pending += n
	}
	if c.checkout != nil {
		if n, err := c.checkout.PendingCount(); err == nil {
			pending += n
		}
	}
	return pending
}
