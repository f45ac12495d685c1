package types

// WriteDateFormat is the backend timestamp layout carried on bulk-loaded
// records and compared by the stale-write guard.
const WriteDateFormat = "2006-01-02 15:04:05"

// ZeroWriteDate is the high-water mark before any record has been loaded.
const ZeroWriteDate = "1970-01-01 00:00:00"

// OrderSummary is a lightweight view of a settled backend order, indexed
// locally for lookup of past sales.
type OrderSummary struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	PartnerID  int     `json:"partner_id"`
	Partner    string  `json:"partner_name"`
	DateOrder  string  `json:"date_order"`
	AmountPaid float64 `json:"amount_paid"`
	State      string  `json:"state"`
	WriteDate  string  `json:"write_date"`
}

// OrderLineSummary is a line of a settled backend order.
type OrderLineSummary struct {
	ID        int     `json:"id"`
	OrderID   int     `json:"order_id"`
	ProductID int     `json:"product_id"`
	Product   string  `json:"product_name"`
	Quantity  float64 `json:"qty"`
	UnitPrice float64 `json:"price_unit"`
	Discount  float64 `json:"discount"`
	WriteDate string  `json:"write_date"`
}
