package pricing

import (
	"errors"

	"github.com/minishop/minishop/internal/domain"
	"github.com/shopspring/decimal"
)

// Destination and Method are closed enumerations; callers validate inputs
// against them before asking for a quote.
type Destination string

const (
	DestinationCanada Destination = "canada"
	DestinationUS     Destination = "us"
	DestinationIntl   Destination = "intl"
)

type Method string

const (
	MethodStandard Method = "standard"
	MethodExpress  Method = "express"
	MethodPriority Method = "priority"
)

// ErrUnknownRate guards against a destination/method pair outside the closed
// enumerations reaching the calculator.
var ErrUnknownRate = errors.New("unknown destination/method combination")

// Flat shipping rates in currency units, destination x method.
var rates = map[Destination]map[Method]int64{
	DestinationCanada: {MethodStandard: 10, MethodExpress: 25, MethodPriority: 35},
	DestinationUS:     {MethodStandard: 15, MethodExpress: 25, MethodPriority: 50},
	DestinationIntl:   {MethodStandard: 20, MethodExpress: 30, MethodPriority: 50},
}

var (
	// Shipping is free once the merchandise total strictly exceeds this.
	freeShippingThreshold = decimal.NewFromInt(500)
	// Flat tax applied to Canadian destinations only.
	canadaTaxRate = decimal.RequireFromString("0.05")
)

func ValidDestination(d Destination) bool {
	_, ok := rates[d]
	return ok
}

func ValidMethod(m Method) bool {
	switch m {
	case MethodStandard, MethodExpress, MethodPriority:
		return true
	}
	return false
}

// Quote is the derived price breakdown for a cart and shipping selection. It
// is recomputed on demand, never stored.
type Quote struct {
	MerchandiseTotal decimal.Decimal `json:"merchandise_total"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	Tax              decimal.Decimal `json:"tax"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
}

// Price computes the quote for the given ledger and shipping selection. An
// empty ledger yields an all-zero quote through the natural zero sum.
func Price(items []domain.LineItem, dest Destination, method Method) (Quote, error) {
	byMethod, ok := rates[dest]
	if !ok {
		return Quote{}, ErrUnknownRate
	}
	rate, ok := byMethod[method]
	if !ok {
		return Quote{}, ErrUnknownRate
	}

	merch := decimal.Zero
	for _, it := range items {
		merch = merch.Add(it.Subtotal())
	}

	shipping := decimal.NewFromInt(rate)
	if merch.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := decimal.Zero
	if dest == DestinationCanada {
		tax = merch.Mul(canadaTaxRate)
	}

	return Quote{
		MerchandiseTotal: merch,
		ShippingCost:     shipping,
		Tax:              tax,
		GrandTotal:       merch.Add(shipping).Add(tax),
	}, nil
}
