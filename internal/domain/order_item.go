package domain

// LineItem represents a product line in an order, snapshotted at purchase time.
type LineItem struct {
	ProductRef string  `json:"productRef"`
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	LineTotal  float64 `json:"lineTotal"`
}

// ExpectedLineTotal returns unit price times quantity.
func (i *LineItem) ExpectedLineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
