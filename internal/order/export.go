package order

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/pkg/types"
)

// Export defaults for the flight reference.
const (
	DefaultFlightType   = "domestic"
	DefaultFlightNumber = "-"
)

// OptionalID marshals as the numeric id, or as false when zero, matching
// the backend convention for absent many2one references.
type OptionalID int

// MarshalJSON implements json.Marshaler.
func (id OptionalID) MarshalJSON() ([]byte, error) {
	if id == 0 {
		return []byte("false"), nil
	}
	return json.Marshal(int(id))
}

// UnmarshalJSON implements json.Unmarshaler. false and null read as zero.
func (id *OptionalID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "false" || s == "null" {
		*id = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = OptionalID(n)
	return nil
}

// TaxIDs marshals as the backend set command [[6, false, ids]].
type TaxIDs []int

// MarshalJSON implements json.Marshaler.
func (t TaxIDs) MarshalJSON() ([]byte, error) {
	ids := []int(t)
	if ids == nil {
		ids = []int{}
	}
	return json.Marshal([]any{[]any{6, false, ids}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TaxIDs) UnmarshalJSON(b []byte) error {
	var commands [][3]json.RawMessage
	if err := json.Unmarshal(b, &commands); err != nil {
		return err
	}
	if len(commands) == 0 {
		*t = nil
		return nil
	}
	var ids []int
	if err := json.Unmarshal(commands[0][2], &ids); err != nil {
		return err
	}
	*t = ids
	return nil
}

// ExportedLine is the wire form of one order line.
type ExportedLine struct {
	ID               int     `json:"id"`
	ProductID        int     `json:"product_id"`
	Quantity         float64 `json:"qty"`
	UnitPrice        float64 `json:"price_unit"`
	Discount         float64 `json:"discount"`
	Charge           float64 `json:"lounge_charge"`
	PriceSubtotal    float64 `json:"price_subtotal"`
	PriceSubtotalInc float64 `json:"price_subtotal_incl"`
	TaxIDs           TaxIDs  `json:"tax_ids"`
}

// LineEntry wraps an ExportedLine in the backend create command [0, 0, line].
type LineEntry struct {
	Line ExportedLine
}

// MarshalJSON implements json.Marshaler.
func (e LineEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{0, 0, e.Line})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *LineEntry) UnmarshalJSON(b []byte) error {
	var command [3]json.RawMessage
	if err := json.Unmarshal(b, &command); err != nil {
		return err
	}
	return json.Unmarshal(command[2], &e.Line)
}

// ExportedPayment is the wire form of one payment line.
type ExportedPayment struct {
	Name      string  `json:"name"`
	JournalID int     `json:"journal_id"`
	AccountID int     `json:"account_id"`
	Amount    float64 `json:"amount"`
}

// PaymentEntry wraps an ExportedPayment in the create command [0, 0, payment].
type PaymentEntry struct {
	Payment ExportedPayment
}

// MarshalJSON implements json.Marshaler.
func (e PaymentEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{0, 0, e.Payment})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *PaymentEntry) UnmarshalJSON(b []byte) error {
	var command [3]json.RawMessage
	if err := json.Unmarshal(b, &command); err != nil {
		return err
	}
	return json.Unmarshal(command[2], &e.Payment)
}

// ExportedOrder is the complete wire form pushed to the backend and saved
// as the local draft snapshot.
type ExportedOrder struct {
	Name             string         `json:"name"`
	UID              string         `json:"uid"`
	SequenceNumber   int            `json:"sequence_number"`
	SessionID        int            `json:"lounge_session_id"`
	UserID           int            `json:"user_id"`
	PartnerID        OptionalID     `json:"partner_id"`
	FiscalPositionID OptionalID     `json:"fiscal_position_id"`
	AmountPaid       float64        `json:"amount_paid"`
	AmountTotal      float64        `json:"amount_total"`
	AmountTax        float64        `json:"amount_tax"`
	AmountReturn     float64        `json:"amount_return"`
	AmountSurcharge  float64        `json:"amount_surcharge"`
	BookingTotal     float64        `json:"booking_total"`
	FlightType       string         `json:"flight_type"`
	FlightNumber     string         `json:"flight_number"`
	PaymentMethodID  OptionalID     `json:"payment_method_id"`
	Lines            []LineEntry    `json:"lines"`
	Statements       []PaymentEntry `json:"statement_ids"`
	CreationDate     string         `json:"creation_date"`
	ToInvoice        bool           `json:"to_invoice"`

	// Checkout orders carry the booking window and the money split.
	BookingFrom  string  `json:"booking_from,omitempty"`
	BookingTo    string  `json:"booking_to,omitempty"`
	BookingDate  string  `json:"lounge_booking_date,omitempty"`
	LastPayment  float64 `json:"last_payment,omitempty"`
	TotalPayment float64 `json:"total_payment,omitempty"`
}

// exportLocked builds the wire form of the order. The caller holds o.mu.
func (o *Order) exportLocked() ExportedOrder {
	fp := o.fiscalPositionLocked()

	lines := make([]LineEntry, 0, len(o.lines))
	for _, l := range o.lines {
		prices := l.prices(o.catalog, fp)
		taxIDs := make(TaxIDs, 0, len(l.product.TaxIDs))
		taxIDs = append(taxIDs, l.product.TaxIDs...)
		lines = append(lines, LineEntry{Line: ExportedLine{
			ID:               l.id,
			ProductID:        l.product.ID,
			Quantity:         l.quantity,
			UnitPrice:        l.unitPrice,
			Discount:         l.discount,
			Charge:           l.charge,
			PriceSubtotal:    prices.PriceWithoutTax,
			PriceSubtotalInc: prices.PriceWithTax,
			TaxIDs:           taxIDs,
		}})
	}

	statements := make([]PaymentEntry, 0, len(o.payments))
	for _, p := range o.payments {
		entry := ExportedPayment{
			Name:   o.createdAt.Format(types.WriteDateFormat),
			Amount: p.amount,
		}
		entry.JournalID = p.register.JournalID
		entry.AccountID = p.register.AccountID
		statements = append(statements, PaymentEntry{Payment: entry})
	}

	flightType := DefaultFlightType
	if o.flightType != "" {
		flightType = strings.ToLower(o.flightType)
	}
	flightNumber := DefaultFlightNumber
	if o.flightNumber != "" {
		flightNumber = strings.ToUpper(o.flightNumber)
	}
	surcharge := 0.0
	for _, l := range o.lines {
		surcharge += l.charge
	}
	paymentMethod := 0
	if o.paymentMethod != nil {
		paymentMethod = o.paymentMethod.JournalID
	}
	bookingTotal := 0.0
	if o.checkout != nil {
		bookingTotal = o.checkout.totalPayment
	}

	_, _, sequence, _ := ParseUID(o.uid)
	export := ExportedOrder{
		Name:             o.name,
		UID:              o.uid,
		SequenceNumber:   sequence,
		SessionID:        o.session.ID,
		UserID:           o.session.UserID,
		PartnerID:        OptionalID(o.partnerID),
		FiscalPositionID: OptionalID(o.fiscalPositionID),
		AmountPaid:       o.totalPaidLocked(),
		AmountTotal:      o.totalWithTaxLocked(),
		AmountTax:        o.totalTaxLocked(),
		AmountReturn:     o.changeLocked(len(o.payments) - 1),
		AmountSurcharge:  o.roundLocked(surcharge),
		BookingTotal:     bookingTotal,
		FlightType:       flightType,
		FlightNumber:     flightNumber,
		PaymentMethodID:  OptionalID(paymentMethod),
		Lines:            lines,
		Statements:       statements,
		CreationDate:     o.createdAt.Format(types.WriteDateFormat),
		ToInvoice:        o.toInvoice,
	}
	if o.checkout != nil {
		if !o.checkout.startAt.IsZero() {
			export.BookingFrom = o.checkout.startAt.Format(types.WriteDateFormat)
		}
		if !o.checkout.finishAt.IsZero() {
			export.BookingTo = o.checkout.finishAt.Format(types.WriteDateFormat)
		}
		export.BookingDate = o.checkout.bookingDate
		export.LastPayment = o.checkout.lastPayment
		export.TotalPayment = o.checkout.totalPayment
	}
	return export
}

// Export returns the order's wire form.
func (o *Order) Export() ExportedOrder {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exportLocked()
}

// RestoreOrder rebuilds an order from a draft snapshot saved by Persist.
// Lines whose product has left the catalog are dropped; payments on
// registers that no longer exist are dropped likewise. The session
// sequence is advanced past the restored uid.
func RestoreOrder(session *Session, catalog *Catalog, vault *localstore.OrderStore, record localstore.OrderRecord) (*Order, error) {
	var export ExportedOrder
	if err := json.Unmarshal(record.Data, &export); err != nil {
		return nil, fmt.Errorf("restore order %s: %w", record.ID, err)
	}

	o := &Order{
		uid:        export.UID,
		name:       export.Name,
		session:    session,
		catalog:    catalog,
		vault:      vault,
		partnerID:  int(export.PartnerID),
		toInvoice:  export.ToInvoice,
		nextLineID: 1,
	}
	if o.uid == "" {
		o.uid = record.ID
	}
	if t, err := parseWriteDate(export.CreationDate); err == nil {
		o.createdAt = t
	}
	o.fiscalPositionID = int(export.FiscalPositionID)
	if export.FlightType != DefaultFlightType {
		o.flightType = export.FlightType
	}
	if export.FlightNumber != DefaultFlightNumber {
		o.flightNumber = export.FlightNumber
	}
	if export.PaymentMethodID != 0 {
		for _, r := range catalog.Registers {
			if r.JournalID == int(export.PaymentMethodID) {
				o.paymentMethod = r
				break
			}
		}
	}

	for _, entry := range export.Lines {
		p := catalog.Index.ProductByID(entry.Line.ProductID)
		if p == nil {
			continue
		}
		l := &Line{
			id:        entry.Line.ID,
			product:   p,
			quantity:  entry.Line.Quantity,
			unitPrice: entry.Line.UnitPrice,
			discount:  entry.Line.Discount,
			charge:    entry.Line.Charge,
		}
		o.lines = append(o.lines, l)
		if l.id >= o.nextLineID {
			o.nextLineID = l.id + 1
		}
	}
	if last := o.lastLineLocked(); last != nil {
		o.selectedLineID = last.id
	}

	for _, entry := range export.Statements {
		var register *types.CashRegister
		for _, r := range catalog.Registers {
			if r.JournalID == entry.Payment.JournalID {
				register = r
				break
			}
		}
		if register == nil {
			continue
		}
		o.payments = append(o.payments, &PaymentLine{
			register: register,
			amount:   entry.Payment.Amount,
		})
	}

	if export.BookingFrom != "" || export.TotalPayment != 0 || record.XID != "" {
		cs := &checkoutState{
			xid:          record.XID,
			bookingDate:  export.BookingDate,
			lastPayment:  export.LastPayment,
			totalPayment: export.TotalPayment,
		}
		if t, err := parseWriteDate(export.BookingFrom); err == nil {
			cs.startAt = t
		}
		if t, err := parseWriteDate(export.BookingTo); err == nil {
			cs.finishAt = t
		}
		o.checkout = cs
	}

	session.AdvancePast(o.uid)
	return o, nil
}
