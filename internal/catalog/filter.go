package catalog

import (
	"sort"
	"strings"

	"github.com/minishop/minishop/internal/domain"
)

// FilterAndSort applies a facet selection and ordering to a product list.
// Facets combine conjunctively; within one facet any selected value matches.
// An empty selection set leaves that facet unconstrained. The input is never
// mutated and the result is never nil.
func FilterAndSort(products []domain.Product, sel domain.FacetSelection, key domain.SortKey) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, sel) {
			out = append(out, p)
		}
	}
	sortProducts(out, key)
	return out
}

func matches(p domain.Product, sel domain.FacetSelection) bool {
	if len(sel.Genders) > 0 && !containsExact(sel.Genders, p.Gender) {
		return false
	}
	if len(sel.Categories) > 0 && !containsFold(sel.Categories, p.Category) {
		return false
	}
	if len(sel.Sizes) > 0 && !intersects(sel.Sizes, p.Sizes) {
		return false
	}
	if len(sel.ColorNames) > 0 && !intersectsColorNames(sel.ColorNames, p.Colors) {
		return false
	}
	return true
}

func containsExact(selected []string, value string) bool {
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

func containsFold(selected []string, value string) bool {
	for _, s := range selected {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// intersects reports whether any product value is selected. A product with
// no values can never satisfy a non-empty selection.
func intersects(selected, values []string) bool {
	for _, v := range values {
		if containsExact(selected, v) {
			return true
		}
	}
	return false
}

func intersectsColorNames(selected []string, swatches []domain.ColorSwatch) bool {
	for _, sw := range swatches {
		if containsExact(selected, sw.Name) {
			return true
		}
	}
	return false
}

// sortProducts orders the list in place. The sort is stable: products with an
// equal key keep their relative input order. An unrecognized key leaves the
// order unchanged.
func sortProducts(products []domain.Product, key domain.SortKey) {
	switch key {
	case domain.SortByName:
		sort.SliceStable(products, func(i, j int) bool {
			return lessFold(products[i].Name, products[j].Name)
		})
	case domain.SortByPrice:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case domain.SortByCategory:
		sort.SliceStable(products, func(i, j int) bool {
			return lessFold(products[i].Category, products[j].Category)
		})
	}
}

func lessFold(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
