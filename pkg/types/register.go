package types

// Journal types relevant to payment handling.
const (
	JournalCash = "cash"
	JournalBank = "bank"
)

// Journal is a payment journal backing a cash register.
type Journal struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Sequence int    `json:"sequence"`

	// ChangeAmount and FixedPriceAmount tune change handling for the
	// journal; MaxPax caps the guest count it accepts.
	ChangeAmount     float64 `json:"amount_authorized_diff"`
	FixedPriceAmount float64 `json:"fixed_price_amount"`
	MaxPax           int     `json:"max_pax"`
}

// CashRegister binds a journal to the register used at the counter.
// Registers are sorted cash-first for display and payment defaults.
type CashRegister struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	JournalID int      `json:"journal_id"`
	AccountID int      `json:"account_id"`
	Journal   *Journal `json:"-"`
}
