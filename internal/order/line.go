package order

import (
	"math"

	"github.com/vileopratama/vitech/internal/tax"
	"github.com/vileopratama/vitech/pkg/types"
)

// Line is one product position on an order. Lines live inside their order
// and are addressed by the order-local id the order allocated for them;
// all mutation goes through the order.
type Line struct {
	id        int
	product   *types.Product
	quantity  float64
	unitPrice float64
	discount  float64
	noMerge   bool

	// charge is the absolute time surcharge carried by booking lines.
	charge float64
}

// ID returns the order-local line id.
func (l *Line) ID() int { return l.id }

// Product returns the product the line sells.
func (l *Line) Product() *types.Product { return l.product }

// Quantity returns the ordered quantity.
func (l *Line) Quantity() float64 { return l.quantity }

// UnitPrice returns the undiscounted unit price.
func (l *Line) UnitPrice() float64 { return l.unitPrice }

// Discount returns the discount percentage.
func (l *Line) Discount() float64 { return l.discount }

// Charge returns the absolute time surcharge on the line.
func (l *Line) Charge() float64 { return l.charge }

// discountedUnitPrice is the unit price after the percentage discount.
func (l *Line) discountedUnitPrice() float64 {
	return l.unitPrice * (1 - l.discount/100)
}

// canMergeWith reports whether adding other to the order may instead bump
// this line's quantity. Only undiscounted lines of the same product at the
// same price merge, and only when the product's unit is groupable.
func (l *Line) canMergeWith(other *Line, unit *types.Unit) bool {
	if l.noMerge || other.noMerge {
		return false
	}
	if l.product.ID != other.product.ID {
		return false
	}
	if unit == nil || !unit.Groupable {
		return false
	}
	if l.discount > 0 {
		return false
	}
	return l.unitPrice == other.unitPrice
}

// Prices is a line's computed money breakdown.
type Prices struct {
	PriceWithTax    float64
	PriceWithoutTax float64
	Tax             float64
	TaxDetails      map[int]float64

	// PriceWithTaxBeforeCharge drops the time surcharge.
	PriceWithTaxBeforeCharge float64
}

// prices computes the line's breakdown under the order's fiscal position.
func (l *Line) prices(c *Catalog, fp *types.FiscalPosition) Prices {
	surcharge := 0.0
	if l.charge != 0 && l.quantity != 0 {
		surcharge = l.charge / l.quantity
	}
	res := tax.ComputeAll(tax.Input{
		Taxes:          c.TaxesFor(l.product),
		TaxByID:        c.TaxByID,
		FiscalPosition: fp,
		UnitPrice:      l.discountedUnitPrice(),
		Surcharge:      surcharge,
		Quantity:       l.quantity,
		RoundingUnit:   c.Currency.Rounding,
		RoundGlobally:  c.RoundGlobally,
	})

	details := make(map[int]float64, len(res.Lines))
	for _, t := range res.Lines {
		details[t.TaxID] += t.Amount
	}
	return Prices{
		PriceWithTax:             res.TotalIncluded,
		PriceWithoutTax:          res.TotalExcluded,
		Tax:                      res.TotalIncluded - res.TotalExcluded,
		TaxDetails:               details,
		PriceWithTaxBeforeCharge: res.TotalIncludedWithoutSurcharge,
	}
}

// ChargeAmount computes the time surcharge a product earns for a booking
// of totalHours: one ChargeRate per started ChargeEvery interval beyond
// the first, rounded to whole currency units.
func ChargeAmount(p *types.Product, totalHours float64) float64 {
	if p == nil || p.ChargeEvery <= 0 || p.ChargeRate == 0 {
		return 0
	}
	sub := math.Round(totalHours / p.ChargeEvery)
	hours := 0.0
	if sub > 1 {
		hours = sub - 1
	}
	return math.Round(p.ChargeRate * hours)
}
