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

// ProductRequest is the full set of editable product fields. PUT replaces
// every field, so omitted booleans reset to their defaults.
type ProductRequest struct {
	Name          string              `json:"name" validate:"required"`
	NameTH        string              `json:"name_th"`
	Description   string              `json:"description"`
	DescriptionTH string              `json:"description_th"`
	Price         decimal.Decimal     `json:"price"`
	ComparePrice  decimal.NullDecimal `json:"compare_price"`
	Category      string              `json:"category" validate:"required"`
	ImageURL      string              `json:"image_url"`
	Stock         int                 `json:"stock" validate:"gte=0"`
	IsActive      *bool               `json:"is_active"`
	IsFeatured    bool                `json:"is_featured"`
	Material      string              `json:"material"`
	Weight        string              `json:"weight"`
}

func (req ProductRequest) input() service.ProductInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.ProductInput{
		Name:          req.Name,
		NameTH:        req.NameTH,
		Description:   req.Description,
		DescriptionTH: req.DescriptionTH,
		Price:         req.Price,
		ComparePrice:  req.ComparePrice,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		Stock:         req.Stock,
		IsActive:      active,
		IsFeatured:    req.IsFeatured,
		Material:      req.Material,
		Weight:        req.Weight,
	}
}

// OrderUpdateRequest patches an order; absent fields are left alone
type OrderUpdateRequest struct {
	Status         *string `json:"status"`
	PaymentStatus  *string `json:"payment_status"`
	TrackingNumber *string `json:"tracking_number"`
}

func (req OrderUpdateRequest) update() domain.OrderUpdate {
	var update domain.OrderUpdate
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		update.Status = &status
	}
	if req.PaymentStatus != nil {
		paymentStatus := domain.PaymentStatus(*req.PaymentStatus)
		update.PaymentStatus = &paymentStatus
	}
	update.TrackingNumber = req.TrackingNumber
	return update
}

// AdminHandler serves the back office
type AdminHandler struct {
	catalogService service.CatalogService
	orderService   service.OrderService
	statsService   service.StatsService
	respond        *Responder
	logger         *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(catalogService service.CatalogService, orderService service.OrderService, statsService service.StatsService,
	respond *Responder, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		catalogService: catalogService,
		orderService:   orderService,
		statsService:   statsService,
		respond:        respond,
		logger:         logger,
	}
}

// RegisterRoutes registers all admin routes behind requireAdmin
func (h *AdminHandler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAdmin)

		r.Get("/stats", h.Stats)

		r.Get("/products", h.ListProducts)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)

		r.Get("/orders", h.ListOrders)
		r.Put("/orders/{id}", h.UpdateOrder)
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Dashboard(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// ListProducts lists every product, inactive ones included. Without
// page_size the back office gets the largest page.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilterFromQuery(r)
	if r.URL.Query().Get("page_size") == "" {
		filter.PageSize = repository.MaxPageSize
	}
	products, total, err := h.catalogService.ListAllProducts(r.Context(), filter)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductListResponse(products, total, filter))
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.respond.BadRequest(w, r, err)
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), req.input())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"product": product})
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, r, repository.ErrProductNotFound)
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.respond.BadRequest(w, r, err)
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, r, repository.ErrProductNotFound)
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListOrders handles GET /api/admin/orders?status=&limit=
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.OrderFilter{
		Status: domain.OrderStatus(q.Get("status")),
		Limit:  queryInt(q.Get("limit"), 0),
	}
	if filter.Status == "all" {
		filter.Status = ""
	}

	orders, err := h.orderService.ListOrders(r.Context(), filter)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *AdminHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, r, repository.ErrOrderNotFound)
		return
	}

	var req OrderUpdateRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.respond.BadRequest(w, r, err)
		return
	}

	order, err := h.orderService.UpdateOrder(r.Context(), id, req.update())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.logger.Info("Admin updated order", zap.String("order_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}
