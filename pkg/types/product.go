package types

// Product is a sellable catalog record, loaded in bulk from the backend and
// replaced wholesale on re-load.
type Product struct {
	ID              int     `json:"id"`
	TemplateID      int     `json:"product_tmpl_id"`
	DisplayName     string  `json:"display_name"`
	Price           float64 `json:"price"`
	ListPrice       float64 `json:"list_price"`
	CategoryID      int     `json:"lounge_categ_id"`
	TaxIDs          []int   `json:"taxes_id"`
	Barcode         string  `json:"barcode"`
	DefaultCode     string  `json:"default_code"`
	Description     string  `json:"description"`
	DescriptionSale string  `json:"description_sale"`
	UnitID          int     `json:"uom_id"`
	ToWeight        bool    `json:"to_weight"`

	// Time-based surcharge: ChargeRate is billed once per ChargeEvery
	// booking hours, with the first interval free.
	ChargeRate  float64 `json:"lounge_charge"`
	ChargeEvery float64 `json:"lounge_charge_every"`

	// CompanyDiscount marks products eligible for the per-partner
	// company discount.
	CompanyDiscount bool `json:"is_disc_company"`
}

// Packaging maps an alternate package barcode to a product template.
type Packaging struct {
	ID         int    `json:"id"`
	TemplateID int    `json:"product_tmpl_id"`
	Barcode    string `json:"barcode"`
}

// Unit is a product unit of measure.
type Unit struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	CategoryID int     `json:"category_id"`
	Rounding   float64 `json:"rounding"`

	// Derived at load time: units sharing the reference category merge
	// quantities on the same order line; the reference unit displays bare.
	Groupable bool `json:"-"`
	IsUnit    bool `json:"-"`
}
