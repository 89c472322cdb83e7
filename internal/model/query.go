package model

// ProductFilter narrows a product query. Empty fields match everything.
type ProductFilter struct {
	ProductID string
	Category  string
}

// Page is an offset window over the store order. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}
