package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/minishop/minishop/internal/domain"
	"github.com/minishop/minishop/internal/store"
	"golang.org/x/sync/singleflight"
)

// productsKey is where the fetched catalog is persisted so later sessions
// skip the network.
const productsKey = "minishop-products"

// Service owns the immutable product snapshot for the session and the
// bootstrap that populates it.
type Service struct {
	source string
	client *http.Client
	store  store.Store
	sfg    singleflight.Group // collapses concurrent Load calls

	mu       sync.RWMutex
	products []domain.Product
}

func NewService(st store.Store, sourceURL string) *Service {
	return &Service{
		source: sourceURL,
		client: &http.Client{Timeout: 30 * time.Second},
		store:  st,
	}
}

// Load populates the catalog, preferring the persisted copy over the
// network. A corrupt or empty persisted entry is discarded (self-healing)
// and the fetch path is taken instead. On failure the catalog stays empty
// and queries return empty results rather than erroring.
func (s *Service) Load(ctx context.Context) error {
	v, err, _ := s.sfg.Do(productsKey, func() (interface{}, error) {
		cached, errGet := s.store.Get(ctx, productsKey)
		if errGet == nil {
			products, errParse := decodeProducts(cached)
			if errParse == nil && len(products) > 0 {
				return products, nil
			}
			if errParse != nil {
				log.Printf("discarding corrupt cached catalog: %v", errParse)
			} else {
				log.Printf("discarding empty cached catalog")
			}
			if errDel := s.store.Delete(ctx, productsKey); errDel != nil {
				log.Printf("failed to clear catalog cache: %v", errDel)
			}
		} else if !errors.Is(errGet, store.ErrKeyNotFound) {
			log.Printf("catalog store get error: %v", errGet)
		}
		return s.fetch(ctx)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.products = v.([]domain.Product)
	s.mu.Unlock()
	return nil
}

func (s *Service) fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	products, err := decodeProducts(body)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if errSet := s.store.Set(ctx, productsKey, body); errSet != nil {
		// The session still works from memory; only the next session pays.
		log.Printf("failed to persist catalog: %v", errSet)
	}
	return products, nil
}

func decodeProducts(data []byte) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

// Products returns a copy of the catalog snapshot in load order.
func (s *Service) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

// Product looks up a single catalog entry by id.
func (s *Service) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

// FilterAndSort runs the browse query against the current snapshot.
func (s *Service) FilterAndSort(sel domain.FacetSelection, key domain.SortKey) []domain.Product {
	return FilterAndSort(s.Products(), sel, key)
}

// Resolve returns a product with its related list from the current snapshot.
func (s *Service) Resolve(id string) (Detail, error) {
	return Resolve(s.Products(), id)
}

// Featured returns the first n catalog entries, used by the home view.
func (s *Service) Featured(n int) []domain.Product {
	products := s.Products()
	if n < 0 {
		n = 0
	}
	if n > len(products) {
		n = len(products)
	}
	return products[:n]
}
