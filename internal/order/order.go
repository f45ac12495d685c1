package order

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/pkg/types"
)

// LineOptions tune AddProduct. The zero value adds one unit at the catalog
// price with the partner's automatic discount.
type LineOptions struct {
	// Quantity defaults to 1 when zero.
	Quantity float64

	// UnitPrice overrides the catalog price when non-nil.
	UnitPrice *float64

	// Discount overrides the automatic partner discount when non-nil.
	Discount *float64

	// NoMerge keeps the line separate even when it could merge into an
	// existing one.
	NoMerge bool
}

// Order is one in-flight sale. All methods are safe for concurrent use.
// Mutations fail with ErrOrderFinalized once the order is finalized;
// nothing persists until Persist or Finalize is called explicitly.
type Order struct {
	mu      sync.Mutex
	uid     string
	name    string
	session *Session
	catalog *Catalog

	// vault is where Persist and Finalize write snapshots. A nil vault
	// makes the order purely in-memory.
	vault *localstore.OrderStore

	createdAt        time.Time
	partnerID        int
	fiscalPositionID int
	toInvoice        bool

	flightType    string
	flightNumber  string
	paymentMethod *types.CashRegister

	lines          []*Line
	nextLineID     int
	selectedLineID int

	payments []*PaymentLine

	finalized bool
	settled   localstore.OrderRecord

	// checkout is set on checkout orders only.
	checkout *checkoutState
}

// NewOrder starts an empty order under the session, drawing a fresh uid
// from the session sequence.
func NewOrder(session *Session, catalog *Catalog, vault *localstore.OrderStore) *Order {
	uid := session.NextUID()
	return &Order{
		uid:        uid,
		name:       "Order " + uid,
		session:    session,
		catalog:    catalog,
		vault:      vault,
		createdAt:  time.Now(),
		nextLineID: 1,
	}
}

// UID returns the order's globally unique id.
func (o *Order) UID() string { return o.uid }

// Name returns the display name.
func (o *Order) Name() string { return o.name }

// Session returns the session the order belongs to.
func (o *Order) Session() *Session { return o.session }

// Finalized reports whether the order has been finalized.
func (o *Order) Finalized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finalized
}

func (o *Order) assertEditableLocked() error {
	if o.finalized {
		return types.ErrOrderFinalized
	}
	return nil
}

// AddProduct puts a product on the order and returns the id of the line
// now carrying it. When the new position can merge into an existing line
// the quantities are summed and that line's id is returned instead.
// Returns ErrUnknownProduct for an id the catalog does not know.
func (o *Order) AddProduct(productID int, opts LineOptions) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return 0, err
	}
	p := o.catalog.Index.ProductByID(productID)
	if p == nil {
		return 0, types.ErrUnknownProduct
	}

	quantity := opts.Quantity
	if quantity == 0 {
		quantity = 1
	}
	unitPrice := p.Price
	if opts.UnitPrice != nil {
		unitPrice = *opts.UnitPrice
	}
	discount := o.catalog.DiscountFor(o.catalog.Index.PartnerByID(o.partnerID), p)
	if opts.Discount != nil {
		discount = *opts.Discount
	}

	line := &Line{
		product:   p,
		quantity:  quantity,
		unitPrice: types.RoundDecimals(unitPrice, o.catalog.PriceDecimals),
		discount:  discount,
		noMerge:   opts.NoMerge,
	}

	if last := o.lastLineLocked(); last != nil && last.canMergeWith(line, o.catalog.UnitFor(p)) {
		last.quantity += quantity
		o.selectedLineID = last.id
		return last.id, nil
	}

	line.id = o.nextLineID
	o.nextLineID++
	o.lines = append(o.lines, line)
	o.selectedLineID = line.id
	return line.id, nil
}

func (o *Order) lastLineLocked() *Line {
	if len(o.lines) == 0 {
		return nil
	}
	return o.lines[len(o.lines)-1]
}

func (o *Order) lineLocked(id int) *Line {
	for _, l := range o.lines {
		if l.id == id {
			return l
		}
	}
	return nil
}

// Line returns the line with the given id. The returned value is a
// snapshot; mutate through the order.
func (o *Order) Line(id int) (Line, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l := o.lineLocked(id)
	if l == nil {
		return Line{}, false
	}
	return *l, true
}

// Lines returns snapshots of all lines in display order.
func (o *Order) Lines() []Line {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Line, 0, len(o.lines))
	for _, l := range o.lines {
		out = append(out, *l)
	}
	return out
}

// IsEmpty reports whether the order has no lines.
func (o *Order) IsEmpty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lines) == 0
}

func (o *Order) mutateLine(id int, fn func(*Line)) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	l := o.lineLocked(id)
	if l == nil {
		return types.ErrLineNotFound
	}
	fn(l)
	return nil
}

// SetLineQuantity changes a line's quantity.
func (o *Order) SetLineQuantity(id int, quantity float64) error {
	return o.mutateLine(id, func(l *Line) { l.quantity = quantity })
}

// SetLineDiscount changes a line's discount percentage.
func (o *Order) SetLineDiscount(id int, discount float64) error {
	return o.mutateLine(id, func(l *Line) { l.discount = discount })
}

// SetLineUnitPrice overrides a line's unit price.
func (o *Order) SetLineUnitPrice(id int, price float64) error {
	return o.mutateLine(id, func(l *Line) {
		l.unitPrice = types.RoundDecimals(price, o.catalog.PriceDecimals)
	})
}

// RemoveLine drops a line from the order.
func (o *Order) RemoveLine(id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	for i, l := range o.lines {
		if l.id == id {
			o.lines = append(o.lines[:i], o.lines[i+1:]...)
			if o.selectedLineID == id {
				o.selectedLineID = 0
				if last := o.lastLineLocked(); last != nil {
					o.selectedLineID = last.id
				}
			}
			return nil
		}
	}
	return types.ErrLineNotFound
}

// SelectLine marks a line as the one keypad edits apply to.
func (o *Order) SelectLine(id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.lineLocked(id) == nil {
		return types.ErrLineNotFound
	}
	o.selectedLineID = id
	return nil
}

// SelectedLine returns the currently selected line, if any.
func (o *Order) SelectedLine() (Line, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l := o.lineLocked(o.selectedLineID)
	if l == nil {
		return Line{}, false
	}
	return *l, true
}

// SetCustomer attaches a partner to the order; zero detaches. Returns
// ErrNotFound for an id the catalog does not know.
func (o *Order) SetCustomer(partnerID int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if partnerID != 0 && o.catalog.Index.PartnerByID(partnerID) == nil {
		return types.ErrNotFound
	}
	o.partnerID = partnerID
	return nil
}

// Customer returns the attached partner, or nil.
func (o *Order) Customer() *types.Partner {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.partnerID == 0 {
		return nil
	}
	return o.catalog.Index.PartnerByID(o.partnerID)
}

// SetFiscalPosition selects the tax remapping applied to every line.
// Zero clears it. Returns ErrNotFound for an unknown id.
func (o *Order) SetFiscalPosition(id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if id != 0 {
		if _, ok := o.catalog.FiscalPositionByID[id]; !ok {
			return types.ErrNotFound
		}
	}
	o.fiscalPositionID = id
	return nil
}

// SetToInvoice flags the order for invoicing on push.
func (o *Order) SetToInvoice(v bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	o.toInvoice = v
	return nil
}

// ToInvoice reports whether the order is flagged for invoicing.
func (o *Order) ToInvoice() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.toInvoice
}

// SetPaymentMethod records the register the customer intends to settle
// through; zero clears it. Returns ErrUnknownRegister for an id the
// catalog does not know.
func (o *Order) SetPaymentMethod(registerID int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if registerID == 0 {
		o.paymentMethod = nil
		return nil
	}
	r := o.catalog.RegisterByID(registerID)
	if r == nil {
		return types.ErrUnknownRegister
	}
	o.paymentMethod = r
	return nil
}

// PaymentMethod returns the intended settlement register, or nil.
func (o *Order) PaymentMethod() *types.CashRegister {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paymentMethod
}

// SetFlight records the flight the sale belongs to. Empty values fall
// back to the export defaults.
func (o *Order) SetFlight(flightType, flightNumber string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	o.flightType = flightType
	o.flightNumber = flightNumber
	return nil
}

func (o *Order) fiscalPositionLocked() *types.FiscalPosition {
	if o.fiscalPositionID == 0 {
		return nil
	}
	return o.catalog.FiscalPositionByID[o.fiscalPositionID]
}

// --- payments ---

// AddPayment opens a payment line on the register, pre-filled with the
// amount still due. Returns the line's position on the order.
func (o *Order) AddPayment(registerID int) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return 0, err
	}
	r := o.catalog.RegisterByID(registerID)
	if r == nil {
		return 0, types.ErrUnknownRegister
	}
	o.payments = append(o.payments, &PaymentLine{
		register: r,
		amount:   o.dueLocked(len(o.payments)),
	})
	return len(o.payments) - 1, nil
}

// SetPaymentAmount changes the amount captured on payment line i.
func (o *Order) SetPaymentAmount(i int, amount float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if i < 0 || i >= len(o.payments) {
		return types.ErrPaymentLineNotFound
	}
	o.payments[i].amount = amount
	return nil
}

// RemovePayment drops payment line i.
func (o *Order) RemovePayment(i int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	if i < 0 || i >= len(o.payments) {
		return types.ErrPaymentLineNotFound
	}
	o.payments = append(o.payments[:i], o.payments[i+1:]...)
	return nil
}

// RemoveAllPayments drops every payment line.
func (o *Order) RemoveAllPayments() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	o.payments = nil
	return nil
}

// CleanEmptyPayments drops payment lines that never captured an amount.
func (o *Order) CleanEmptyPayments() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	kept := o.payments[:0]
	for _, p := range o.payments {
		if p.amount != 0 {
			kept = append(kept, p)
		}
	}
	o.payments = kept
	return nil
}

// Payments returns snapshots of the payment lines in capture order.
func (o *Order) Payments() []PaymentLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]PaymentLine, 0, len(o.payments))
	for _, p := range o.payments {
		out = append(out, *p)
	}
	return out
}

// SetTip sets the tip to amount, replacing any existing tip line; a zero
// amount just removes it. Returns ErrUnknownProduct when the catalog has
// no tip product configured.
func (o *Order) SetTip(amount float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.assertEditableLocked(); err != nil {
		return err
	}
	p := o.catalog.Index.ProductByID(o.catalog.TipProductID)
	if p == nil {
		return types.ErrUnknownProduct
	}
	for i, l := range o.lines {
		if l.product.ID == p.ID {
			o.lines = append(o.lines[:i], o.lines[i+1:]...)
			break
		}
	}
	if amount == 0 {
		return nil
	}
	line := &Line{
		id:        o.nextLineID,
		product:   p,
		quantity:  1,
		unitPrice: types.RoundDecimals(amount, o.catalog.PriceDecimals),
		noMerge:   true,
	}
	o.nextLineID++
	o.lines = append(o.lines, line)
	return nil
}

// Tip returns the amount carried on the tip line, or zero.
func (o *Order) Tip() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.catalog.TipProductID == 0 {
		return 0
	}
	for _, l := range o.lines {
		if l.product.ID == o.catalog.TipProductID {
			return l.unitPrice * l.quantity
		}
	}
	return 0
}

// Clone copies the order's cart into a fresh order under a new uid.
// Payments, finalization state and checkout carry-over do not follow.
func (o *Order) Clone() *Order {
	o.mu.Lock()
	defer o.mu.Unlock()

	clone := NewOrder(o.session, o.catalog, o.vault)
	clone.partnerID = o.partnerID
	clone.fiscalPositionID = o.fiscalPositionID
	for _, l := range o.lines {
		copied := *l
		copied.id = clone.nextLineID
		clone.nextLineID++
		clone.lines = append(clone.lines, &copied)
	}
	if last := clone.lastLineLocked(); last != nil {
		clone.selectedLineID = last.id
	}
	return clone
}

// --- totals ---

func (o *Order) roundLocked(v float64) float64 {
	return types.RoundToUnit(v, o.catalog.Currency.Rounding)
}

func (o *Order) totalWithoutTaxLocked() float64 {
	sum := 0.0
	for _, l := range o.lines {
		sum += l.prices(o.catalog, o.fiscalPositionLocked()).PriceWithoutTax
	}
	return o.roundLocked(sum)
}

func (o *Order) totalTaxLocked() float64 {
	sum := 0.0
	for _, l := range o.lines {
		sum += l.prices(o.catalog, o.fiscalPositionLocked()).Tax
	}
	return o.roundLocked(sum)
}

func (o *Order) totalWithTaxLocked() float64 {
	if o.checkout != nil {
		return o.roundLocked(o.checkout.totalPayment)
	}
	// Counter sales round the grand total up to the next whole unit.
	return math.Ceil(o.totalWithoutTaxLocked() + o.totalTaxLocked())
}

func (o *Order) totalPaidLocked() float64 {
	sum := 0.0
	if o.checkout != nil {
		sum = o.checkout.lastPayment
	}
	for _, p := range o.payments {
		sum += p.amount
	}
	return o.roundLocked(sum)
}

// dueLocked returns what remains to pay counting only the payment lines
// before position cursor. Pass len(payments) to count them all.
func (o *Order) dueLocked(cursor int) float64 {
	due := o.totalWithTaxLocked()
	if o.checkout != nil {
		due -= o.checkout.lastPayment
	}
	for i, p := range o.payments {
		if i >= cursor {
			break
		}
		due -= p.amount
	}
	return o.roundLocked(math.Max(0, due))
}

// changeLocked returns the overpayment counting payment lines up to and
// including position cursor.
func (o *Order) changeLocked(cursor int) float64 {
	change := -o.totalWithTaxLocked()
	if o.checkout != nil {
		change += o.checkout.lastPayment
	}
	for i, p := range o.payments {
		if i > cursor {
			break
		}
		change += p.amount
	}
	return o.roundLocked(math.Max(0, change))
}

// TotalWithoutTax is the rounded sum of all line prices before tax.
func (o *Order) TotalWithoutTax() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalWithoutTaxLocked()
}

// TotalTax is the rounded sum of all line tax amounts.
func (o *Order) TotalTax() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalTaxLocked()
}

// TotalWithTax is the grand total to collect.
func (o *Order) TotalWithTax() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalWithTaxLocked()
}

// TotalPaid is the rounded sum of captured payments.
func (o *Order) TotalPaid() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalPaidLocked()
}

// Due is what remains to pay, never negative.
func (o *Order) Due() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dueLocked(len(o.payments))
}

// DueBeforePayment is the amount that was due when payment line i was
// opened: payments from position i on are not counted.
func (o *Order) DueBeforePayment(i int) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dueLocked(i)
}

// Change is the overpayment to hand back, never negative.
func (o *Order) Change() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.changeLocked(len(o.payments) - 1)
}

// ChangeThroughPayment is the overpayment counting payments up to and
// including position i.
func (o *Order) ChangeThroughPayment(i int) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.changeLocked(i)
}

// IsPaid reports whether the captured payments cover the grand total.
func (o *Order) IsPaid() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dueLocked(len(o.payments)) == 0
}

// TaxDetails returns the total tax amount per tax id across all lines.
func (o *Order) TaxDetails() map[int]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	details := make(map[int]float64)
	for _, l := range o.lines {
		for id, amount := range l.prices(o.catalog, o.fiscalPositionLocked()).TaxDetails {
			details[id] += amount
		}
	}
	return details
}

// TotalForCategory sums the tax-included price of the lines whose product
// sits under the category or one of its descendants.
func (o *Order) TotalForCategory(categoryID int) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	sum := 0.0
	for _, l := range o.lines {
		if o.catalog.Index.IsProductInCategory(l.product.ID, categoryID) {
			sum += l.prices(o.catalog, o.fiscalPositionLocked()).PriceWithTax
		}
	}
	return o.roundLocked(sum)
}

// TotalForTaxes sums the tax-included price of the lines carrying any of
// the given tax ids.
func (o *Order) TotalForTaxes(taxIDs ...int) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	want := make(map[int]bool, len(taxIDs))
	for _, id := range taxIDs {
		want[id] = true
	}
	sum := 0.0
	for _, l := range o.lines {
		for _, id := range l.product.TaxIDs {
			if want[id] {
				sum += l.prices(o.catalog, o.fiscalPositionLocked()).PriceWithTax
				break
			}
		}
	}
	return o.roundLocked(sum)
}

// --- lifecycle ---

// Persist writes the current draft snapshot to the vault. Call it after a
// batch of mutations; nothing saves implicitly. A nil vault makes Persist
// a no-op; a finalized order no longer persists drafts.
func (o *Order) Persist() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.vault == nil || o.finalized {
		return nil
	}
	raw, err := json.Marshal(o.exportLocked())
	if err != nil {
		return err
	}
	return o.vault.SaveUnpaid(o.uid, raw)
}

// Discard drops the order's draft snapshot from the vault.
func (o *Order) Discard() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.vault == nil {
		return nil
	}
	return o.vault.RemoveUnpaid(o.uid)
}

// Finalize freezes the order, persists it to the settled queue and returns
// the settled record. Finalize is idempotent: calling it again returns the
// record built the first time, so a retry after a crash cannot fork the
// order into two different snapshots.
func (o *Order) Finalize() (localstore.OrderRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.finalized {
		return o.settled, nil
	}

	raw, err := json.Marshal(o.exportLocked())
	if err != nil {
		return localstore.OrderRecord{}, err
	}
	record := localstore.OrderRecord{ID: o.uid, Data: raw}
	if o.checkout != nil {
		record.XID = o.checkout.xid
	}
	if o.vault != nil {
		if err := o.vault.SaveSettled(record); err != nil {
			return localstore.OrderRecord{}, err
		}
	}
	o.finalized = true
	o.settled = record
	return record, nil
}
