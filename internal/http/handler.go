package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/minishop/minishop/internal/cart"
	"github.com/minishop/minishop/internal/catalog"
	"github.com/minishop/minishop/internal/domain"
	"github.com/minishop/minishop/internal/pricing"
	"github.com/shopspring/decimal"
)

// Handler adapts the engine to a JSON surface for the UI shell. All business
// rules live in the engine packages; the handler only validates boundary
// input and maps errors to status codes.
type Handler struct {
	catalog *catalog.Service
	cart    *cart.Service
}

func NewHandler(catalogSvc *catalog.Service, cartSvc *cart.Service) *Handler {
	return &Handler{catalog: catalogSvc, cart: cartSvc}
}

// Routes mounts the consumer-facing surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Post("/quick-add", h.QuickAdd)
		r.Delete("/items/{index}", h.RemoveItem)
		r.Delete("/", h.ClearCart)
		r.Get("/quote", h.GetQuote)
	})
	r.Post("/checkout", h.Checkout)
	return r
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	ColorHex  string `json:"color_hex"`
	ColorName string `json:"color_name"`
	Quantity  int    `json:"quantity"`
}

type QuickAddRequestDTO struct {
	ProductID string `json:"product_id"`
}

type CartResponseDTO struct {
	Items      []domain.LineItem `json:"items"`
	TotalItems int               `json:"total_items"`
}

type CheckoutResponseDTO struct {
	OrderID string `json:"order_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ListProducts runs the browse query. Facet params repeat
// (?gender=men&size=S&size=M); sort is one of name, price, category.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := domain.FacetSelection{
		Genders:    q["gender"],
		Categories: q["category"],
		Sizes:      q["size"],
		ColorNames: q["color"],
	}
	products := h.catalog.FilterAndSort(sel, domain.SortKey(q.Get("sort")))
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := h.catalog.Resolve(id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Size == "" || req.ColorHex == "" {
		respondError(w, http.StatusBadRequest, "invalid_variant", "size and color_hex are required")
		return
	}

	// Snapshot the unit price from the live catalog at add time.
	product, err := h.catalog.Product(req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	item := domain.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Size:      req.Size,
		ColorHex:  req.ColorHex,
		ColorName: req.ColorName,
		UnitPrice: product.Price,
		Qty:       req.Quantity,
	}
	if err := h.cart.Add(r.Context(), item); err != nil {
		log.Printf("add item failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to persist cart")
		return
	}
	respondJSON(w, http.StatusCreated, h.cartResponse())
}

func (h *Handler) QuickAdd(w http.ResponseWriter, r *http.Request) {
	var req QuickAddRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	product, err := h.catalog.Product(req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if err := h.cart.QuickAdd(r.Context(), product); err != nil {
		log.Printf("quick add failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to persist cart")
		return
	}
	respondJSON(w, http.StatusCreated, h.cartResponse())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}
	// Out-of-range indexes are a deliberate no-op: the UI may hold a stale
	// reference after a concurrent removal.
	if err := h.cart.Remove(r.Context(), index); err != nil {
		log.Printf("remove item failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to persist cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		log.Printf("clear cart failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to persist cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// GetQuote prices the current cart for a destination and method, both drawn
// from closed enumerations. An empty cart quotes all zeros; the UI disables
// its shipping controls in that state.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	dest := pricing.Destination(queryDefault(r, "destination", string(pricing.DestinationCanada)))
	method := pricing.Method(queryDefault(r, "method", string(pricing.MethodStandard)))

	if !pricing.ValidDestination(dest) {
		respondError(w, http.StatusBadRequest, "invalid_destination", "destination must be one of canada, us, intl")
		return
	}
	if !pricing.ValidMethod(method) {
		respondError(w, http.StatusBadRequest, "invalid_method", "method must be one of standard, express, priority")
		return
	}

	items := h.cart.Items()
	if len(items) == 0 {
		respondJSON(w, http.StatusOK, pricing.Quote{
			MerchandiseTotal: decimal.Zero,
			ShippingCost:     decimal.Zero,
			Tax:              decimal.Zero,
			GrandTotal:       decimal.Zero,
		})
		return
	}

	quote, err := pricing.Price(items, dest, method)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_shipping", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	orderID, err := h.cart.Checkout(r.Context())
	if errors.Is(err, cart.ErrEmptyCart) {
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
		return
	}
	if err != nil {
		log.Printf("checkout failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{OrderID: orderID})
}

func (h *Handler) cartResponse() CartResponseDTO {
	items := h.cart.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponseDTO{Items: items, TotalItems: h.cart.TotalItemCount()}
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
