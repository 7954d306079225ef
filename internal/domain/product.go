package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is an immutable catalog entry. Once loaded it is read-only for the
// session; queries copy rather than mutate.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Gender      string          `json:"gender"`
	Material    string          `json:"material"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Sizes       []string        `json:"sizes"`
	Colors      []ColorSwatch   `json:"color"`
}

// ColorSwatch is one selectable color of a product.
type ColorSwatch struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// UnmarshalJSON accepts both string and numeric ids from the feed and
// canonicalizes them to a string, so lookups and cart keys never mix
// representations.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = canonicalID(aux.ID)
	return nil
}

func canonicalID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

// FacetSelection is an ephemeral browse query. An empty slice leaves that
// facet unconstrained; values within a facet combine disjunctively.
type FacetSelection struct {
	Genders    []string
	Categories []string
	Sizes      []string
	ColorNames []string
}

// SortKey selects the ordering of a filtered product list.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByPrice    SortKey = "price"
	SortByCategory SortKey = "category"
)
