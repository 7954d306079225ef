package catalog

import (
	"errors"
	"sort"

	"github.com/minishop/minishop/internal/domain"
)

// ErrProductNotFound is returned when a requested product id is not in the
// catalog. Callers are expected to no-op or render a not-found state, never
// crash.
var ErrProductNotFound = errors.New("product not found")

// relatedLimit caps the related-products list shown on a detail view.
const relatedLimit = 4

// Detail is a resolved product together with its related-products list.
type Detail struct {
	Product domain.Product   `json:"product"`
	Related []domain.Product `json:"related"`
}

// Resolve looks up a product by exact id and ranks its related products:
// same gender and category, different id, nearest price first. Equal price
// distance keeps catalog order. At most four related products are returned.
func Resolve(products []domain.Product, id string) (Detail, error) {
	idx := -1
	for i := range products {
		if products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Detail{}, ErrProductNotFound
	}
	p := products[idx]

	related := make([]domain.Product, 0)
	for _, c := range products {
		if c.ID != p.ID && c.Gender == p.Gender && c.Category == p.Category {
			related = append(related, c)
		}
	}
	sort.SliceStable(related, func(i, j int) bool {
		di := related[i].Price.Sub(p.Price).Abs()
		dj := related[j].Price.Sub(p.Price).Abs()
		return di.LessThan(dj)
	})
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	return Detail{Product: p, Related: related}, nil
}
