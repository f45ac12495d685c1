package order

import (
	"time"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/pkg/types"
)

// checkoutState carries what a checkout order inherits from the booking it
// settles: the backend external id, the booking window and the money
// already taken at booking time.
type checkoutState struct {
	xid          string
	startAt      time.Time
	finishAt     time.Time
	bookingDate  string
	lastPayment  float64
	totalPayment float64
}

// CheckoutSeed is the backend state a checkout order starts from.
type CheckoutSeed struct {
	// XID is the backend external id of the booking being settled.
	XID string

	// StartAt and FinishAt bound the booked time window.
	StartAt  time.Time
	FinishAt time.Time

	// BookingDate is the backend timestamp the booking was taken at.
	BookingDate string

	// LastPayment is what the customer already paid at booking time;
	// TotalPayment is the recorded grand total so far.
	LastPayment  float64
	TotalPayment float64
}

// NewCheckoutOrder starts the order that settles an existing booking. It
// behaves like a counter order except that its grand total is the carried
// total payment and the booking's earlier payment counts as already paid.
func NewCheckoutOrder(session *Session, catalog *Catalog, vault *localstore.OrderStore, seed CheckoutSeed) *Order {
	o := NewOrder(session, catalog, vault)
	o.name = "Checkout " + o.uid
	o.checkout = &checkoutState{
		xid:          seed.XID,
		startAt:      seed.StartAt,
		finishAt:     seed.FinishAt,
		bookingDate:  seed.BookingDate,
		lastPayment:  seed.LastPayment,
		totalPayment: seed.TotalPayment,
	}
	return o
}

// IsCheckout reports whether the order settles a booking.
func (o *Order) IsCheckout() bool {
	return o.checkout != nil
}

// BookingDuration is the booked time window in hours. Zero for counter
// orders or inverted windows.
func (o *Order) BookingDuration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.checkout == nil || !o.checkout.finishAt.After(o.checkout.startAt) {
		return 0
	}
	return o.checkout.finishAt.Sub(o.checkout.startAt).Hours()
}

// LastPayment returns the amount already paid at booking time.
func (o *Order) LastPayment() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.checkout == nil {
		return 0
	}
	return o.checkout.lastPayment
}

// TotalPayment returns the carried grand total.
func (o *Order) TotalPayment() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.checkout == nil {
		return 0
	}
	return o.checkout.totalPayment
}

// SetTotalPayment overrides the carried grand total. Returns
// ErrNotCheckoutOrder on counter orders.
func (o *Order) SetTotalPayment(amount float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if o.checkout == nil {
		return types.ErrNotCheckoutOrder
	}
	o.checkout.totalPayment = amount
	return nil
}

// ApplyCharges stamps every line with the time surcharge its product earns
// for the booked duration, then recomputes the carried grand total from
// the lines. Returns ErrNotCheckoutOrder on counter orders.
func (o *Order) ApplyCharges() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if o.checkout == nil {
		return types.ErrNotCheckoutOrder
	}

	hours := 0.0
	if o.checkout.finishAt.After(o.checkout.startAt) {
		hours = o.checkout.finishAt.Sub(o.checkout.startAt).Hours()
	}
	for _, l := range o.lines {
		l.charge = ChargeAmount(l.product, hours)
	}
	o.checkout.totalPayment = o.roundLocked(o.totalWithoutTaxLocked() + o.totalTaxLocked())
	return nil
}

// TotalCharge sums the time surcharges across all lines.
func (o *Order) TotalCharge() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	sum := 0.0
	for _, l := range o.lines {
		sum += l.charge
	}
	return o.roundLocked(sum)
}
