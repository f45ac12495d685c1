package types

// RootCategoryID is the synthetic root of the category tree. It always
// exists, is its own ancestor-closure root, and has no ancestors.
const RootCategoryID = 0

// Category is a node of the product category tree.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id"`
	Image    string `json:"image"`
}
