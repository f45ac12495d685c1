package order

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vileopratama/vitech/pkg/types"
)

func parseWriteDate(s string) (time.Time, error) {
	return time.Parse(types.WriteDateFormat, s)
}

// ReceiptLine is one printed line on a receipt.
type ReceiptLine struct {
	Product  string
	Quantity float64
	Price    string
}

// Receipt is the printable projection of an order. All money fields are
// pre-formatted in the order's currency.
type Receipt struct {
	Name     string
	Cashier  string
	Date     string
	Customer string

	Lines []ReceiptLine

	Subtotal string
	Tax      string
	Charge   string
	Total    string
	Paid     string
	Change   string
}

// moneyFormatter renders amounts with locale-aware digit grouping and the
// currency symbol in its configured position.
type moneyFormatter struct {
	printer  *message.Printer
	currency types.Currency
}

func newMoneyFormatter(c types.Currency) moneyFormatter {
	return moneyFormatter{
		printer:  message.NewPrinter(language.English),
		currency: c,
	}
}

func (m moneyFormatter) format(v float64) string {
	amount := m.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(m.currency.Decimals),
		number.MaxFractionDigits(m.currency.Decimals)))
	if m.currency.Symbol == "" {
		return amount
	}
	if m.currency.Position == "before" {
		return m.currency.Symbol + " " + amount
	}
	return amount + " " + m.currency.Symbol
}

// BuildReceipt renders the order for printing.
func (o *Order) BuildReceipt() Receipt {
	o.mu.Lock()
	defer o.mu.Unlock()

	money := newMoneyFormatter(o.catalog.Currency)
	fp := o.fiscalPositionLocked()

	r := Receipt{
		Name:    o.name,
		Cashier: o.session.UserName,
		Date:    o.createdAt.Format(types.WriteDateFormat),
	}
	if o.partnerID != 0 {
		if p := o.catalog.Index.PartnerByID(o.partnerID); p != nil {
			r.Customer = p.Name
		}
	}

	charge := 0.0
	for _, l := range o.lines {
		prices := l.prices(o.catalog, fp)
		charge += l.charge
		r.Lines = append(r.Lines, ReceiptLine{
			Product:  l.product.DisplayName,
			Quantity: l.quantity,
			Price:    money.format(prices.PriceWithTax),
		})
	}

	r.Subtotal = money.format(o.totalWithoutTaxLocked())
	r.Tax = money.format(o.totalTaxLocked())
	r.Charge = money.format(o.roundLocked(charge))
	r.Total = money.format(o.totalWithTaxLocked())
	r.Paid = money.format(o.totalPaidLocked())
	r.Change = money.format(o.changeLocked(len(o.payments) - 1))
	return r
}
