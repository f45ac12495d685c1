package order

import (
	"github.com/vileopratama/vitech/pkg/types"
)

// PaymentLine records money taken on one cash register. Payment lines are
// addressed by their position on the order.
type PaymentLine struct {
	register *types.CashRegister
	amount   float64
}

// Register returns the cash register the payment was taken on.
func (p *PaymentLine) Register() *types.CashRegister { return p.register }

// Amount returns the captured amount.
func (p *PaymentLine) Amount() float64 { return p.amount }
