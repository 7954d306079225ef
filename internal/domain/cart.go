package domain

import "github.com/shopspring/decimal"

// Defaults used by quick-add when a product declares no sizes or colors.
const DefaultSize = "One Size"

var DefaultSwatch = ColorSwatch{Name: "Black", Hex: "#000000"}

// LineItem is one cart row. UnitPrice is snapshotted when the line is
// created; later catalog price changes do not affect items already in the
// cart.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	ColorHex  string          `json:"color_hex"`
	ColorName string          `json:"color_name"`
	UnitPrice decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

// LineKey is the composite identity of a cart line. Two additions with the
// same key merge into a single line.
type LineKey struct {
	ProductID string
	Size      string
	ColorHex  string
}

func (li LineItem) Key() LineKey {
	return LineKey{ProductID: li.ProductID, Size: li.Size, ColorHex: li.ColorHex}
}

// Subtotal is qty times the snapshotted unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Qty)))
}

// NormalizeQty clamps a requested quantity to at least 1. Zero, negative and
// unparsed quantities from the UI all normalize to a single unit.
func NormalizeQty(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
