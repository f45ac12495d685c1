package types

// Tax amount types. Group taxes recurse into their children.
const (
	TaxFixed    = "fixed"
	TaxPercent  = "percent"
	TaxDivision = "division"
	TaxGroup    = "group"
)

// Tax is a tax definition applied to order lines.
type Tax struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	AmountType string  `json:"amount_type"`

	// PriceInclude marks the tax as already contained in the unit price.
	PriceInclude bool `json:"price_include"`

	// IncludeBaseAmount feeds this tax's amount back into the base of the
	// taxes computed after it.
	IncludeBaseAmount bool `json:"include_base_amount"`

	// ChildIDs lists member taxes of a group tax, resolved at load time
	// into Children.
	ChildIDs []int  `json:"children_tax_ids"`
	Children []*Tax `json:"-"`
}

// TaxMapping swaps one tax for another under a fiscal position.
type TaxMapping struct {
	SourceTaxID int `json:"tax_src_id"`
	DestTaxID   int `json:"tax_dest_id"`
}

// FiscalPosition remaps taxes for partners under a special regime. A
// mapping with DestTaxID zero drops the source tax entirely.
type FiscalPosition struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Mappings []TaxMapping `json:"-"`
}

// MapTax resolves a tax through the fiscal position. It returns the
// replacement tax, or nil when the mapping drops it. A nil position or an
// unmapped tax passes through unchanged.
func (fp *FiscalPosition) MapTax(t *Tax, byID map[int]*Tax) *Tax {
	if fp == nil {
		return t
	}
	for _, m := range fp.Mappings {
		if m.SourceTaxID != t.ID {
			continue
		}
		if m.DestTaxID == 0 {
			return nil
		}
		if mapped, ok := byID[m.DestTaxID]; ok {
			return mapped
		}
		return nil
	}
	return t
}
