package domain

import "github.com/shopspring/decimal"

// LineItem is one product entry in the cart. Identity is the product ID;
// adding the same product again merges into the existing entry.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CartTotals is derived from the current line items and recomputed on every
// mutation; it is never stored or adjusted independently.
type CartTotals struct {
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
}

// CartSnapshot is the full cart state at a point in time.
type CartSnapshot struct {
	Items         []LineItem      `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
}
