package loader

import (
	"context"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/internal/order"
	"github.com/vileopratama/vitech/pkg/types"
)

// UnitReferenceCategory is the backend unit-of-measure category whose
// members count in plain units. Lines in those units merge by quantity;
// weighed or measured units never do.
const UnitReferenceCategory = 1

// DefaultSteps is the standard pipeline, in dependency order.
func DefaultSteps() []Step {
	return []Step{
		{Name: "currency", Run: loadCurrency},
		{Name: "units", Run: loadUnits},
		{Name: "taxes", Run: loadTaxes},
		{Name: "categories", Run: loadCategories},
		{Name: "products", Run: loadProducts},
		{Name: "packagings", Run: loadPackagings},
		{Name: "partners", Run: loadPartners},
		{Name: "fiscal_positions", Run: loadFiscalPositions},
		{Name: "registers", Run: loadRegisters},
		{Name: "order_history", Run: loadOrderHistory},
		{Name: "drafts", Run: restoreDrafts},
	}
}

func loadCurrency(ctx context.Context, lc *Context, feed Feed) error {
	currency, err := feed.Currency(ctx)
	if err != nil {
		return err
	}
	currency.Decimals = types.CurrencyDecimals(currency.Rounding)
	lc.Catalog.Currency = currency
	return nil
}

func loadUnits(ctx context.Context, lc *Context, feed Feed) error {
	units, err := feed.Units(ctx)
	if err != nil {
		return err
	}
	lc.Catalog.UnitByID = make(map[int]*types.Unit, len(units))
	for i := range units {
		u := units[i]
		u.Groupable = u.CategoryID == UnitReferenceCategory
		u.IsUnit = u.Groupable && u.Rounding >= 1
		lc.Catalog.UnitByID[u.ID] = &u
	}
	return nil
}

func loadTaxes(ctx context.Context, lc *Context, feed Feed) error {
	taxes, err := feed.Taxes(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int]*types.Tax, len(taxes))
	for i := range taxes {
		t := taxes[i]
		byID[t.ID] = &t
	}
	// Resolve group members once so the engine never chases ids.
	for _, t := range byID {
		for _, childID := range t.ChildIDs {
			if child, ok := byID[childID]; ok {
				t.Children = append(t.Children, child)
			}
		}
	}
	lc.Catalog.TaxByID = byID
	return nil
}

func loadCategories(ctx context.Context, lc *Context, feed Feed) error {
	categories, err := feed.Categories(ctx)
	if err != nil {
		return err
	}
	return lc.Catalog.Index.AddCategories(categories)
}

func loadProducts(ctx context.Context, lc *Context, feed Feed) error {
	products, err := feed.Products(ctx)
	if err != nil {
		return err
	}
	lc.Catalog.Index.AddProducts(products)
	return nil
}

func loadPackagings(ctx context.Context, lc *Context, feed Feed) error {
	packagings, err := feed.Packagings(ctx)
	if err != nil {
		return err
	}
	lc.Catalog.Index.AddPackagings(packagings)
	return nil
}

func loadPartners(ctx context.Context, lc *Context, feed Feed) error {
	partners, err := feed.Partners(ctx, lc.Catalog.Index.PartnerWriteDate())
	if err != nil {
		return err
	}
	lc.Catalog.Index.AddPartners(partners)
	return nil
}

func loadFiscalPositions(ctx context.Context, lc *Context, feed Feed) error {
	positions, err := feed.FiscalPositions(ctx)
	if err != nil {
		return err
	}
	lc.Catalog.FiscalPositionByID = make(map[int]*types.FiscalPosition, len(positions))
	for i := range positions {
		fp := positions[i]
		lc.Catalog.FiscalPositionByID[fp.ID] = &fp
	}
	return nil
}

func loadRegisters(ctx context.Context, lc *Context, feed Feed) error {
	journals, err := feed.Journals(ctx)
	if err != nil {
		return err
	}
	journalByID := make(map[int]*types.Journal, len(journals))
	for i := range journals {
		j := journals[i]
		journalByID[j.ID] = &j
	}

	registers, err := feed.Registers(ctx)
	if err != nil {
		return err
	}
	lc.Catalog.Registers = lc.Catalog.Registers[:0]
	for i := range registers {
		r := registers[i]
		r.Journal = journalByID[r.JournalID]
		lc.Catalog.Registers = append(lc.Catalog.Registers, &r)
	}
	lc.Catalog.SortRegisters()
	return nil
}

func loadOrderHistory(ctx context.Context, lc *Context, feed Feed) error {
	orders, err := feed.Orders(ctx, lc.Catalog.Index.OrderWriteDate())
	if err != nil {
		return err
	}
	lc.Catalog.Index.AddOrders(orders)

	lines, err := feed.OrderLines(ctx, lc.Catalog.Index.OrderLineWriteDate())
	if err != nil {
		return err
	}
	lc.Catalog.Index.AddOrderLines(lines)
	return nil
}

// restoreDrafts brings back the draft orders saved before the last
// shutdown and walks every persisted uid so the session sequence resumes
// past anything already issued.
func restoreDrafts(_ context.Context, lc *Context, _ Feed) error {
	vaults := []*localstore.OrderStore{lc.Orders, lc.Checkout}
	for _, vault := range vaults {
		if vault == nil {
			continue
		}
		records, err := vault.LoadUnpaid()
		if err != nil {
			return err
		}
		for _, record := range records {
			restored, err := order.RestoreOrder(lc.Session, lc.Catalog, vault, record)
			if err != nil {
				// A snapshot that no longer decodes is dropped, not
				// allowed to wedge startup.
				_ = vault.RemoveUnpaid(record.ID)
				continue
			}
			lc.Restored = append(lc.Restored, restored)
		}

		settled, err := vault.LoadSettled()
		if err != nil {
			return err
		}
		for _, record := range settled {
			lc.Session.AdvancePast(record.ID)
		}
	}
	return nil
}
