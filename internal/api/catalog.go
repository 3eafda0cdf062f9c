// ABOUTME: Product and order handlers under /api/v1
// ABOUTME: Products support partial updates; orders reference existing products by ID

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Alex-Zverr/microshop/internal/store"
)

// ProductRequest is the body of POST /api/v1/products.
type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// ProductPatchRequest is the body of PATCH /api/v1/products/{id}. Absent fields are unchanged.
type ProductPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
}

// OrderRequest is the body of POST /api/v1/orders.
type OrderRequest struct {
	PromoCode  string  `json:"promo_code"`
	ProductIDs []int64 `json:"product_ids"`
}

// ProductResponse is the JSON form of a product.
type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// OrderResponse is the JSON form of an order.
type OrderResponse struct {
	ID        int64             `json:"id"`
	PromoCode *string           `json:"promo_code"`
	CreatedAt time.Time         `json:"created_at"`
	Products  []ProductResponse `json:"products"`
}

func productResponse(p *store.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price}
}

func validateProduct(name string, price int64) string {
	if strings.TrimSpace(name) == "" {
		return "name is required"
	}
	if price < 0 {
		return "price must not be negative"
	}
	return ""
}

// handleCreateProduct handles POST /api/v1/products.
func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateProduct(req.Name, req.Price); msg != "" {
		sendJSONError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	p := &store.Product{Name: req.Name, Description: req.Description, Price: req.Price}
	if err := a.store.CreateProduct(r.Context(), p); err != nil {
		a.internalError(w, "failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse(p))
}

// handleListProducts handles GET /api/v1/products.
func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.store.ListProducts(r.Context())
	if err != nil {
		a.internalError(w, "failed to list products", err)
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetProduct handles GET /api/v1/products/{id}.
func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	p, err := a.store.GetProduct(r.Context(), id)
	if err != nil {
		a.storeError(w, "product", err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse(p))
}

// handleUpdateProduct handles PATCH /api/v1/products/{id}.
func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	var req ProductPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		sendJSONError(w, http.StatusUnprocessableEntity, "name must not be empty")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		sendJSONError(w, http.StatusUnprocessableEntity, "price must not be negative")
		return
	}

	p, err := a.store.UpdateProduct(r.Context(), id, store.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		a.storeError(w, "product", err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse(p))
}

// handleDeleteProduct handles DELETE /api/v1/products/{id}.
func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid product id")
		return
	}

	err := a.store.DeleteProduct(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrConflict):
		sendJSONError(w, http.StatusConflict, "product is referenced by an order")
	default:
		a.storeError(w, "product", err)
	}
}

// handleCreateOrder handles POST /api/v1/orders.
func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, id := range req.ProductIDs {
		if id <= 0 {
			sendJSONError(w, http.StatusUnprocessableEntity, "product_ids must be positive")
			return
		}
	}

	order := &store.Order{PromoCode: req.PromoCode}
	if err := a.store.CreateOrder(r.Context(), order, req.ProductIDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, http.StatusUnprocessableEntity, "unknown product in product_ids")
			return
		}
		a.internalError(w, "failed to create order", err)
		return
	}

	created, err := a.store.GetOrder(r.Context(), order.ID)
	if err != nil {
		a.internalError(w, "failed to load order", err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(created))
}

// handleGetOrder handles GET /api/v1/orders/{id}.
func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid order id")
		return
	}

	order, err := a.store.GetOrder(r.Context(), id)
	if err != nil {
		a.storeError(w, "order", err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(order))
}

func orderResponse(o *store.Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID,
		PromoCode: optional(o.PromoCode),
		CreatedAt: o.CreatedAt,
		Products:  make([]ProductResponse, 0, len(o.Products)),
	}
	for _, p := range o.Products {
		resp.Products = append(resp.Products, productResponse(p))
	}
	return resp
}
