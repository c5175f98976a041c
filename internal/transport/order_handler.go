package transport

import (
	"net/http"

	"buppha/internal/domain"
	"buppha/internal/middleware"
	"buppha/internal/repository"
	"buppha/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	CustomerName    string `json:"customer_name" validate:"required"`
	CustomerEmail   string `json:"customer_email" validate:"required,email"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address" validate:"required"`
	PaymentMethod   string `json:"payment_method" validate:"omitempty,oneof=bank_transfer promptpay credit_card"`
	Notes           string `json:"notes"`
}

// CheckoutResponse identifies the placed order
type CheckoutResponse struct {
	OrderID uuid.UUID       `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// OrderHandler handles checkout and order lookups
type OrderHandler struct {
	orderService service.OrderService
	respond      *Responder
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, respond *Responder, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		respond:      respond,
		logger:       logger,
	}
}

// RegisterRoutes registers the order routes. Checkout needs the cart session
// and goes behind limiter.
func (h *OrderHandler) RegisterRoutes(r chi.Router, cartSession, limiter func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.With(cartSession, limiter).Post("/", h.PlaceOrder)
		r.Get("/{id}", h.GetOrder)
	})
}

// PlaceOrder turns the session cart into an order
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetCartSession(r.Context())
	if !ok {
		h.respond.Error(w, r, errMissingCartSession)
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))
		h.respond.BadRequest(w, r, err)
		return
	}

	details := domain.CheckoutDetails{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Notes:           req.Notes,
	}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		details.UserID = &userID
	}

	order, err := h.orderService.PlaceOrder(r.Context(), sessionID, details)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{OrderID: order.ID, Total: order.Total})
}

// GetOrder returns an order with its line snapshots
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, r, repository.ErrOrderNotFound)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}
