package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"buppha/internal/domain"
	"buppha/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing. They share one store so cart, catalog and
// orders see the same stock.
type mockStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*domain.Product
	categories map[string]*domain.Category
	cart       []*domain.CartItem
	orders     map[uuid.UUID]*domain.Order
}

func newMockStore() *mockStore {
	return &mockStore{
		products: make(map[uuid.UUID]*domain.Product),
		categories: map[string]*domain.Category{
			"rings":     {Slug: "rings", Name: "Rings", SortOrder: 4},
			"necklaces": {Slug: "necklaces", Name: "Necklaces", SortOrder: 1},
		},
		orders: make(map[uuid.UUID]*domain.Order),
	}
}

func (s *mockStore) addProduct(name string, price int64, stock int) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &domain.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: "rings",
		Stock:    stock,
		IsActive: true,
	}
	s.products[p.ID] = p
	return p
}

func (s *mockStore) stockOf(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *mockStore) cartSize(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.cart {
		if item.SessionID == sessionID {
			n++
		}
	}
	return n
}

// linesLocked must be called with mu held
func (s *mockStore) linesLocked(sessionID string) []domain.CartLine {
	var lines []domain.CartLine
	for _, item := range s.cart {
		if item.SessionID != sessionID {
			continue
		}
		p, ok := s.products[item.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		lines = append(lines, domain.CartLine{CartItem: *item, Product: *p})
	}
	return lines
}

type mockProductRepository struct{ *mockStore }

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[product.Category]; !ok {
		return repository.ErrCategoryNotFound
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	product.UpdatedAt = time.Now()
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	kept := m.cart[:0]
	for _, item := range m.cart {
		if item.ProductID != id {
			kept = append(kept, item)
		}
	}
	m.cart = kept
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

type mockCategoryRepository struct{ *mockStore }

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[slug]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

type mockCartRepository struct{ *mockStore }

func (m *mockCartRepository) ListLines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linesLocked(sessionID), nil
}

func (m *mockCartRepository) QuantityOf(ctx context.Context, sessionID string, productID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.cart {
		if item.SessionID == sessionID && item.ProductID == productID {
			return item.Quantity, nil
		}
	}
	return 0, nil
}

func (m *mockCartRepository) AddQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok || !p.IsActive {
		return nil, repository.ErrStockExceeded
	}
	for _, item := range m.cart {
		if item.SessionID == sessionID && item.ProductID == productID {
			if item.Quantity+quantity > p.Stock {
				return nil, repository.ErrStockExceeded
			}
			item.Quantity += quantity
			cp := *item
			return &cp, nil
		}
	}
	if quantity > p.Stock {
		return nil, repository.ErrStockExceeded
	}
	item := &domain.CartItem{
		ID:        uuid.New(),
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}
	m.cart = append(m.cart, item)
	cp := *item
	return &cp, nil
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.cart {
		if item.SessionID == sessionID && item.ID == itemID {
			item.Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.cart {
		if item.SessionID == sessionID && item.ID == itemID {
			m.cart = append(m.cart[:i], m.cart[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(sessionID)
	return nil
}

func (s *mockStore) clearLocked(sessionID string) {
	kept := s.cart[:0]
	for _, item := range s.cart {
		if item.SessionID != sessionID {
			kept = append(kept, item)
		}
	}
	s.cart = kept
}

type mockOrderRepository struct{ *mockStore }

// PlaceOrder holds the store lock for the whole placement, standing in for
// the row locks the postgres implementation takes
func (m *mockOrderRepository) PlaceOrder(ctx context.Context, sessionID string, build repository.OrderBuilder) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := m.linesLocked(sessionID)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	order, err := build(lines)
	if err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		p := m.products[item.ProductID]
		if p.Stock < item.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   item.Quantity,
				Available:   p.Stock,
			}
		}
	}
	for _, item := range order.Items {
		m.products[item.ProductID].Stock -= item.Quantity
	}

	m.clearLocked(sessionID)
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockOrderRepository) Update(ctx context.Context, id uuid.UUID, update domain.OrderUpdate) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if update.Status != nil {
		o.Status = *update.Status
	}
	if update.PaymentStatus != nil {
		o.PaymentStatus = *update.PaymentStatus
	}
	if update.TrackingNumber != nil {
		o.TrackingNumber = *update.TrackingNumber
	}
	return o, nil
}

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateOAuthProfile(ctx context.Context, id uuid.UUID, avatarURL, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			if avatarURL != "" {
				user.AvatarURL = avatarURL
			}
			user.Provider = provider
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
