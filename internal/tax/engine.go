// Package tax computes the tax breakdown of an order line. The computation
// is pure: every input arrives in the Input struct and the result depends
// on nothing else, so replaying a computation always yields the same
// breakdown.
package tax

import (
	"math"

	"github.com/vileopratama/vitech/pkg/types"
)

// Input carries one line's pricing and the tax definitions to apply.
type Input struct {
	// Taxes are applied in order. Group taxes recurse into their
	// resolved children.
	Taxes []*types.Tax

	// TaxByID resolves fiscal position mappings.
	TaxByID map[int]*types.Tax

	// FiscalPosition remaps each tax before it is applied. Nil means no
	// remapping.
	FiscalPosition *types.FiscalPosition

	// UnitPrice is the discounted price of one unit; Surcharge is the
	// per-unit time charge added on top before tax.
	UnitPrice float64
	Surcharge float64
	Quantity  float64

	// RoundingUnit is the currency rounding step, e.g. 0.01. Every
	// per-tax amount is rounded to it.
	RoundingUnit float64

	// RoundGlobally defers rounding to the order total by shrinking the
	// per-tax rounding step; the final totals still round at the
	// currency step.
	RoundGlobally bool
}

// Line is one tax's share of the computed amount.
type Line struct {
	TaxID  int
	Name   string
	Amount float64
}

// Result is the full breakdown for one order line.
type Result struct {
	Lines []Line

	// TotalExcluded is the base without any tax; TotalIncluded adds
	// every computed tax amount. TotalIncludedWithoutSurcharge is
	// TotalIncluded minus the surcharge itself; the tax amounts, which
	// are computed on the surcharge-including base, stay in.
	TotalExcluded                 float64
	TotalIncluded                 float64
	TotalIncludedWithoutSurcharge float64
}

// ComputeAll applies the input's taxes to its priced quantity and returns
// the breakdown. Price-included taxes are carved out of the base;
// base-affecting taxes feed their amount into the taxes that follow; a
// group tax restarts the computation over its children.
func ComputeAll(in Input) Result {
	unit := in.RoundingUnit
	if unit <= 0 {
		unit = 0.01
	}
	taxUnit := unit
	if in.RoundGlobally {
		taxUnit *= 0.00001
	}

	taxes := mapTaxes(in.Taxes, in.FiscalPosition, in.TaxByID)
	lines, excluded, included, bare := apply(taxes, in.UnitPrice+in.Surcharge, in.UnitPrice, in.Quantity, taxUnit)
	return Result{
		Lines:                         lines,
		TotalExcluded:                 types.RoundToUnit(excluded, unit),
		TotalIncluded:                 types.RoundToUnit(included, unit),
		TotalIncludedWithoutSurcharge: types.RoundToUnit(bare, unit),
	}
}

// mapTaxes resolves each tax through the fiscal position, dropping the
// ones the mapping removes.
func mapTaxes(taxes []*types.Tax, fp *types.FiscalPosition, byID map[int]*types.Tax) []*types.Tax {
	out := make([]*types.Tax, 0, len(taxes))
	for _, t := range taxes {
		if mapped := fp.MapTax(t, byID); mapped != nil {
			out = append(out, mapped)
		}
	}
	return out
}

// apply runs the tax list against one priced quantity. Tax amounts round
// at unit; the returned totals are unrounded. Taxes compute on the
// surcharge-including base; every exclusive amount lands on both included
// totals, so includedBare tracks the total net of the surcharge alone.
func apply(taxes []*types.Tax, price, barePrice, quantity, unit float64) (lines []Line, totalExcluded, totalIncluded, includedBare float64) {
	totalExcluded = types.RoundToUnit(price*quantity, unit)
	totalIncluded = totalExcluded
	includedBare = types.RoundToUnit(barePrice*quantity, unit)
	base := totalExcluded

	for _, t := range taxes {
		if t.AmountType == types.TaxGroup {
			childLines, childExcluded, childIncluded, childBare := apply(t.Children, price, barePrice, quantity, unit)
			totalExcluded = childExcluded
			totalIncluded = childIncluded
			includedBare = childBare
			base = childExcluded
			lines = append(lines, childLines...)
			continue
		}

		amount := types.RoundToUnit(rawAmount(t, base, quantity), unit)
		if amount == 0 {
			continue
		}

		if t.PriceInclude {
			totalExcluded -= amount
			base -= amount
		} else {
			totalIncluded += amount
			includedBare += amount
		}
		if t.IncludeBaseAmount {
			base += amount
		}

		lines = append(lines, Line{TaxID: t.ID, Name: t.Name, Amount: amount})
	}
	return lines, totalExcluded, totalIncluded, includedBare
}

// rawAmount computes the unrounded amount of a non-group tax on the given
// base.
func rawAmount(t *types.Tax, base, quantity float64) float64 {
	switch t.AmountType {
	case types.TaxFixed:
		// A fixed tax follows the sign of the base so refund lines
		// carry negative tax.
		sign := 1.0
		if base < 0 {
			sign = -1.0
		}
		return math.Abs(t.Amount) * sign * quantity
	case types.TaxPercent:
		if t.PriceInclude {
			return base - base/(1+t.Amount/100)
		}
		return base * t.Amount / 100
	case types.TaxDivision:
		if t.PriceInclude {
			return base * t.Amount / 100
		}
		return base/(1-t.Amount/100) - base
	default:
		return 0
	}
}
