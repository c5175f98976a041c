package transport

import (
	"net/http"

	"buppha/internal/middleware"
	"buppha/internal/repository"
	"buppha/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest adds quantity (default 1) of a product
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity"`
}

// UpdateCartRequest overwrites a line's quantity; zero removes it
type UpdateCartRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity *int      `json:"quantity" validate:"required"`
}

// CartHandler serves the session cart
type CartHandler struct {
	cartService service.CartService
	respond     *Responder
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, respond *Responder, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		respond:     respond,
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes behind the cart session middleware
func (h *CartHandler) RegisterRoutes(r chi.Router, cartSession func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(cartSession)
		r.Get("/", h.Get)
		r.Post("/", h.Add)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.GetCartSession(r.Context())
	if !ok {
		// Only reachable if the route was mounted without CartSession
		h.logger.Error("Cart route without cart session", zap.String("path", r.URL.Path))
		h.respond.Error(w, r, errMissingCartSession)
		return "", false
	}
	return sessionID, true
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, sessionID string, status int) {
	cart, err := h.cartService.Get(r.Context(), sessionID)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, status, cart)
}

// Get returns the priced cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeCart(w, r, sessionID, http.StatusOK)
}

// Add handles POST /api/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.respond.BadRequest(w, r, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if _, err := h.cartService.Add(r.Context(), sessionID, req.ProductID, quantity); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.writeCart(w, r, sessionID, http.StatusOK)
}

// Update handles PUT /api/cart
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.respond.BadRequest(w, r, err)
		return
	}

	if err := h.cartService.SetQuantity(r.Context(), sessionID, req.ItemID, *req.Quantity); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.writeCart(w, r, sessionID, http.StatusOK)
}

// Delete handles DELETE /api/cart?item_id= and DELETE /api/cart?all=true
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var err error
	switch {
	case q.Get("all") == "true":
		err = h.cartService.Clear(r.Context(), sessionID)
	case q.Get("item_id") != "":
		itemID, parseErr := uuid.Parse(q.Get("item_id"))
		if parseErr != nil {
			err = repository.ErrCartItemNotFound
			break
		}
		err = h.cartService.Remove(r.Context(), sessionID, itemID)
	default:
		h.respond.InvalidRequest(w, r)
		return
	}
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.writeCart(w, r, sessionID, http.StatusOK)
}
