package transport

import (
	"net/http"
	"strconv"
	"strings"

	"buppha/internal/domain"
	"buppha/internal/middleware"
	"buppha/internal/repository"
	"buppha/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// ProductListResponse is a page of products
type ProductListResponse struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	catalogService service.CatalogService
	respond        *Responder
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, respond *Responder, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		respond:        respond,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{id}", h.GetProduct)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ListProducts handles GET /api/products?category=&featured=&search=&page=&page_size=&sort=&order=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilterFromQuery(r)
	products, total, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductListResponse(products, total, filter))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, r, repository.ErrProductNotFound)
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

func productFilterFromQuery(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()

	filter := repository.ProductFilter{
		Category:     q.Get("category"),
		FeaturedOnly: q.Get("featured") == "true",
		Search:       q.Get("search"),
		Page:         queryInt(q.Get("page"), 1),
		PageSize:     queryInt(q.Get("page_size"), defaultPageSize),
		SortBy:       q.Get("sort"),
		SortOrder:    repository.SortOrder(strings.ToUpper(q.Get("order"))),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > repository.MaxPageSize {
		filter.PageSize = defaultPageSize
	}
	return filter
}

func newProductListResponse(products []*domain.Product, total int, filter repository.ProductFilter) ProductListResponse {
	if products == nil {
		products = []*domain.Product{}
	}
	return ProductListResponse{
		Products:   products,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}
}

// queryInt parses a query value, returning fallback when absent or malformed
func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
