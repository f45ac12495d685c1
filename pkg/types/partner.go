package types

// Partner is a customer record. Bulk loads carry a WriteDate used by the
// stale-write guard; Address is derived locally before indexing.
type Partner struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Street      string  `json:"street"`
	Zip         string  `json:"zip"`
	City        string  `json:"city"`
	CountryName string  `json:"country_name"`
	VAT         string  `json:"vat"`
	Phone       string  `json:"phone"`
	Mobile      string  `json:"mobile"`
	Email       string  `json:"email"`
	Barcode     string  `json:"lounge_barcode"`
	CompanyType string  `json:"company_type"`
	Discount    float64 `json:"disc_product"`
	WriteDate   string  `json:"write_date"`

	// Address is computed from street/zip/city/country on index insert.
	Address string `json:"address"`
}

// CompanyTypeCompany marks partners billed as companies, which unlocks the
// per-product company discount.
const CompanyTypeCompany = "company"
