package order

import (
	"sort"

	"github.com/vileopratama/vitech/internal/posdb"
	"github.com/vileopratama/vitech/pkg/types"
)

// Catalog bundles everything an order needs to price itself: the product
// index, the resolved tax and unit tables, the payment registers and the
// currency. It is assembled once by the loader and read concurrently by
// every open order.
type Catalog struct {
	Index *posdb.Index

	TaxByID            map[int]*types.Tax
	UnitByID           map[int]*types.Unit
	FiscalPositionByID map[int]*types.FiscalPosition
	Registers          []*types.CashRegister

	Currency      types.Currency
	PriceDecimals int
	RoundGlobally bool

	// TipProductID names the product that carries tips. Zero disables
	// tipping.
	TipProductID int
}

// TaxesFor resolves a product's tax ids against the tax table, keeping the
// declared order and skipping ids the load never delivered.
func (c *Catalog) TaxesFor(p *types.Product) []*types.Tax {
	taxes := make([]*types.Tax, 0, len(p.TaxIDs))
	for _, id := range p.TaxIDs {
		if t, ok := c.TaxByID[id]; ok {
			taxes = append(taxes, t)
		}
	}
	return taxes
}

// UnitFor returns a product's unit of measure, or nil when unknown.
func (c *Catalog) UnitFor(p *types.Product) *types.Unit {
	return c.UnitByID[p.UnitID]
}

// RegisterByID returns a cash register, or nil when unknown.
func (c *Catalog) RegisterByID(id int) *types.CashRegister {
	for _, r := range c.Registers {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// SortRegisters orders the registers cash journals first, then by journal
// sequence. The first register is the payment default.
func (c *Catalog) SortRegisters() {
	sort.SliceStable(c.Registers, func(i, j int) bool {
		a, b := c.Registers[i], c.Registers[j]
		aCash := a.Journal != nil && a.Journal.Type == types.JournalCash
		bCash := b.Journal != nil && b.Journal.Type == types.JournalCash
		if aCash != bCash {
			return aCash
		}
		aSeq, bSeq := 0, 0
		if a.Journal != nil {
			aSeq = a.Journal.Sequence
		}
		if b.Journal != nil {
			bSeq = b.Journal.Sequence
		}
		return aSeq < bSeq
	})
}

// DiscountFor returns the automatic discount percentage a partner earns on
// a product. Only company partners get the product's company discount.
func (c *Catalog) DiscountFor(partner *types.Partner, p *types.Product) float64 {
	if partner == nil || partner.Discount == 0 {
		return 0
	}
	if !p.CompanyDiscount || partner.CompanyType != types.CompanyTypeCompany {
		return 0
	}
	return partner.Discount
}
