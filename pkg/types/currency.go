package types

// Currency describes the money unit every total is expressed in.
type Currency struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Position string  `json:"position"`
	Rounding float64 `json:"rounding"`

	// Decimals is derived from Rounding at load time.
	Decimals int `json:"-"`
}
