package service

import (
	"context"
	"strings"
	"time"

	"buppha/internal/domain"
	"buppha/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService places orders and serves order reads and admin updates
type OrderService interface {
	PlaceOrder(ctx context.Context, sessionID string, details domain.CheckoutDetails) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, update domain.OrderUpdate) (*domain.Order, error)
}

const MaxOrderListLimit = 200

type orderService struct {
	orderRepo repository.OrderRepository
	pricing   ShippingPolicy
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, pricing ShippingPolicy, logger *zap.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		pricing:   pricing,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderService) validateCheckout(details *domain.CheckoutDetails) error {
	details.CustomerName = strings.TrimSpace(details.CustomerName)
	details.CustomerEmail = strings.TrimSpace(details.CustomerEmail)
	details.ShippingAddress = strings.TrimSpace(details.ShippingAddress)
	details.CustomerPhone = strings.TrimSpace(details.CustomerPhone)

	if details.CustomerName == "" {
		return invalid("customer_name", "required")
	}
	if details.CustomerEmail == "" {
		return invalid("customer_email", "required")
	}
	if err := s.validate.Var(details.CustomerEmail, "email"); err != nil {
		return invalid("customer_email", "invalid_email")
	}
	if details.ShippingAddress == "" {
		return invalid("shipping_address", "required")
	}
	if details.PaymentMethod == "" {
		details.PaymentMethod = domain.PaymentMethodBankTransfer
	}
	if !details.PaymentMethod.Valid() {
		return invalid("payment_method", "unknown")
	}
	return nil
}

// PlaceOrder turns the session's cart into an order. Buyer fields are
// validated before any locks are taken.
func (s *orderService) PlaceOrder(ctx context.Context, sessionID string, details domain.CheckoutDetails) (*domain.Order, error) {
	if err := s.validateCheckout(&details); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.PlaceOrder(ctx, sessionID, func(lines []domain.CartLine) (*domain.Order, error) {
		return s.buildOrder(details, lines)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
	)

	return order, nil
}

// buildOrder prices locked lines and snapshots them. The first line whose
// quantity exceeds stock aborts placement.
func (s *orderService) buildOrder(details domain.CheckoutDetails, lines []domain.CartLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	for _, line := range lines {
		if line.Quantity > line.Product.Stock {
			return nil, &domain.InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				Requested:   line.Quantity,
				Available:   line.Product.Stock,
			}
		}
	}

	quote := s.pricing.Quote(lines)
	now := s.now()

	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          details.UserID,
		CustomerName:    details.CustomerName,
		CustomerEmail:   details.CustomerEmail,
		CustomerPhone:   details.CustomerPhone,
		ShippingAddress: details.ShippingAddress,
		Subtotal:        quote.Subtotal,
		ShippingFee:     quote.ShippingFee,
		Discount:        decimal.Zero,
		Total:           quote.Total,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   details.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPending,
		Notes:           strings.TrimSpace(details.Notes),
		Items:           make([]domain.OrderItem, 0, len(lines)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    line.ProductID,
			ProductName:  line.Product.Name,
			ProductImage: line.Product.ImageURL,
			Price:        line.Product.Price,
			Quantity:     line.Quantity,
		})
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// ListOrders returns orders newest first
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "unknown")
	}
	if filter.Limit <= 0 || filter.Limit > MaxOrderListLimit {
		filter.Limit = MaxOrderListLimit
	}
	return s.orderRepo.List(ctx, filter)
}

// UpdateOrder patches status, payment status and tracking number independently
func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, update domain.OrderUpdate) (*domain.Order, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, invalid("status", "unknown")
	}
	if update.PaymentStatus != nil && !update.PaymentStatus.Valid() {
		return nil, invalid("payment_status", "unknown")
	}
	if update.TrackingNumber != nil {
		trimmed := strings.TrimSpace(*update.TrackingNumber)
		update.TrackingNumber = &trimmed
	}

	order, err := s.orderRepo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order updated",
		zap.String("order_id", id.String()),
		zap.String("status", string(order.Status)),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	return order, nil
}
