package handlers

import (
	"net/http"

	"eternals-backend/application/services"
	"eternals-backend/pkg/common"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StoreHandler serves the product catalog and the session cart
type StoreHandler struct {
	carts    *services.CartService
	sessions *CartSessions
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(
	carts *services.CartService,
	sessions *CartSessions,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *StoreHandler {
	return &StoreHandler{
		carts:    carts,
		sessions: sessions,
		errs:     errs,
		logger:   logger,
	}
}

// AddItemRequest represents the request body for adding a product
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=100"`
}

// UpdateQuantityRequest represents the request body for changing a line
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

// ListProducts handles GET /api/store/products
func (h *StoreHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.carts.Products(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondList(w, products)
}

// GetCart handles GET /api/cart
func (h *StoreHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Resolve(w, r)
	common.RespondJSON(w, http.StatusOK, h.carts.View(r.Context(), sessionID))
}

// AddItem handles POST /api/cart/items
func (h *StoreHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	sessionID := h.sessions.Resolve(w, r)
	view, err := h.carts.AddItem(r.Context(), sessionID, req.ProductID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// UpdateItem handles PUT /api/cart/items/{productID}
func (h *StoreHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	sessionID := h.sessions.Resolve(w, r)
	view, err := h.carts.UpdateQuantity(r.Context(), sessionID, chi.URLParam(r, "productID"), *req.Quantity)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/cart/items/{productID}
func (h *StoreHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Resolve(w, r)
	common.RespondJSON(w, http.StatusOK, h.carts.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "productID")))
}

// ClearCart handles DELETE /api/cart
func (h *StoreHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Resolve(w, r)
	common.RespondJSON(w, http.StatusOK, h.carts.Clear(r.Context(), sessionID))
}
