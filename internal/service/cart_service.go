package service

import (
	"context"
	"errors"
	"fmt"

	"buppha/internal/domain"
	"buppha/internal/repository"

	"github.com/google/uuid"
)

// CartService manages the anonymous cart of a session
type CartService interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, sessionID string, itemID uuid.UUID) error
	Clear(ctx context.Context, sessionID string) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     ShippingPolicy
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, pricing ShippingPolicy) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
	}
}

// Get returns the priced cart. Lines of inactive products are left out.
func (s *cartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	lines, err := s.cartRepo.ListLines(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	quote := s.pricing.Quote(lines)
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}

	return &domain.Cart{
		Items:       lines,
		ItemCount:   count,
		Subtotal:    quote.Subtotal,
		ShippingFee: quote.ShippingFee,
		Total:       quote.Total,
	}, nil
}

// Add puts quantity more of a product in the cart. The resulting line
// quantity may not exceed the product's stock.
func (s *cartService) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "must_be_positive")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}

	item, err := s.cartRepo.AddQuantity(ctx, sessionID, productID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrStockExceeded) {
			existing, qerr := s.cartRepo.QuantityOf(ctx, sessionID, productID)
			if qerr != nil {
				return nil, qerr
			}
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   existing + quantity,
				Available:   product.Stock,
			}
		}
		return nil, err
	}

	return item, nil
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
// Stock is not consulted here, checkout re-checks it.
func (s *cartService) SetQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.cartRepo.Delete(ctx, sessionID, itemID)
	}
	return s.cartRepo.SetQuantity(ctx, sessionID, itemID, quantity)
}

func (s *cartService) Remove(ctx context.Context, sessionID string, itemID uuid.UUID) error {
	return s.cartRepo.Delete(ctx, sessionID, itemID)
}

func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	return s.cartRepo.Clear(ctx, sessionID)
}
