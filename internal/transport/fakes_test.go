package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"buppha/internal/domain"
	"buppha/internal/i18n"
	"buppha/internal/repository"
	"buppha/internal/service"
	"buppha/internal/token"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Fakes embed the service interface and override only what a test needs.
// Calling anything else panics, which the tests treat as a failure.

type fakeAuthService struct {
	service.AuthService
	register func(ctx context.Context, input service.RegisterInput) (*domain.User, string, error)
	login    func(ctx context.Context, email, password string) (*domain.User, string, error)
	users    map[uuid.UUID]*domain.User
}

func (f *fakeAuthService) Register(ctx context.Context, input service.RegisterInput) (*domain.User, string, error) {
	return f.register(ctx, input)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return f.login(ctx, email, password)
}

func (f *fakeAuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeOAuthService struct {
	begin    func(ctx context.Context, redirect string) (string, error)
	complete func(ctx context.Context, state, code string) (*service.OAuthResult, error)
}

func (f *fakeOAuthService) Begin(ctx context.Context, redirect string) (string, error) {
	return f.begin(ctx, redirect)
}

func (f *fakeOAuthService) Complete(ctx context.Context, state, code string) (*service.OAuthResult, error) {
	return f.complete(ctx, state, code)
}

type fakeCatalogService struct {
	service.CatalogService
	lastFilter repository.ProductFilter
	products   []*domain.Product
	categories []*domain.Category
	create     func(ctx context.Context, input service.ProductInput) (*domain.Product, error)
	deleted    []uuid.UUID
}

func (f *fakeCatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	f.lastFilter = filter
	return f.products, len(f.products), nil
}

func (f *fakeCatalogService) ListAllProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	f.lastFilter = filter
	return f.products, len(f.products), nil
}

func (f *fakeCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeCatalogService) CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	return f.create(ctx, input)
}

func (f *fakeCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type cartCall struct {
	op        string
	sessionID string
	id        uuid.UUID
	quantity  int
}

type fakeCartService struct {
	calls []cartCall
	err   error
}

func (f *fakeCartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return &domain.Cart{Items: []domain.CartLine{}}, nil
}

func (f *fakeCartService) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	f.calls = append(f.calls, cartCall{"add", sessionID, productID, quantity})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CartItem{ID: uuid.New(), ProductID: productID, Quantity: quantity}, nil
}

func (f *fakeCartService) SetQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error {
	f.calls = append(f.calls, cartCall{"set", sessionID, itemID, quantity})
	return f.err
}

func (f *fakeCartService) Remove(ctx context.Context, sessionID string, itemID uuid.UUID) error {
	f.calls = append(f.calls, cartCall{"remove", sessionID, itemID, 0})
	return f.err
}

func (f *fakeCartService) Clear(ctx context.Context, sessionID string) error {
	f.calls = append(f.calls, cartCall{"clear", sessionID, uuid.Nil, 0})
	return f.err
}

type fakeOrderService struct {
	service.OrderService
	placed     []domain.CheckoutDetails
	sessions   []string
	placeErr   error
	lastFilter repository.OrderFilter
	lastUpdate domain.OrderUpdate
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, sessionID string, details domain.CheckoutDetails) (*domain.Order, error) {
	f.sessions = append(f.sessions, sessionID)
	f.placed = append(f.placed, details)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &domain.Order{ID: uuid.New(), Total: decimal.RequireFromString("1600")}, nil
}

func (f *fakeOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	f.lastFilter = filter
	return nil, nil
}

func (f *fakeOrderService) UpdateOrder(ctx context.Context, id uuid.UUID, update domain.OrderUpdate) (*domain.Order, error) {
	f.lastUpdate = update
	return &domain.Order{ID: id, Items: []domain.OrderItem{}}, nil
}

type fakeStatsService struct{}

func (fakeStatsService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	return &domain.DashboardStats{TotalProducts: 8, RecentOrders: []domain.Order{}}, nil
}

func testResponder() *Responder {
	return NewResponder(i18n.New("th"), zap.NewNop())
}

func testTokens() *token.Manager {
	return token.NewManager("test-secret", 7*24*time.Hour)
}

func passThrough(next http.Handler) http.Handler { return next }

func do(t *testing.T, h http.Handler, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
