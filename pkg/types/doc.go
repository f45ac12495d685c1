// Package types defines the entity types shared by the lounge point-of-sale
// data core: catalog records fed from the backend (products, partners,
// categories, taxes, cash registers), the standard errors, and the money
// rounding helpers used by price and tax computation.
package types
