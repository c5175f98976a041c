package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"buppha/internal/domain"
	"buppha/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService serves the storefront catalog and admin product management
type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	ListAllProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductInput carries every editable product field. Update replaces all of them.
type ProductInput struct {
	Name          string
	NameTH        string
	Description   string
	DescriptionTH string
	Price         decimal.Decimal
	ComparePrice  decimal.NullDecimal
	Category      string
	ImageURL      string
	Stock         int
	IsActive      bool
	IsFeatured    bool
	Material      string
	Weight        string
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// ListProducts lists active products only
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	filter.ActiveOnly = true
	return s.productRepo.List(ctx, filter)
}

// GetProduct hides inactive products from the storefront
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// ListAllProducts includes inactive products
func (s *catalogService) ListAllProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	filter.ActiveOnly = false
	return s.productRepo.List(ctx, filter)
}

func (s *catalogService) validateProduct(ctx context.Context, input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)

	if input.Name == "" {
		return invalid("name", "required")
	}
	if !input.Price.IsPositive() {
		return invalid("price", "must_be_positive")
	}
	if input.ComparePrice.Valid && !input.ComparePrice.Decimal.IsPositive() {
		return invalid("compare_price", "must_be_positive")
	}
	if input.Stock < 0 {
		return invalid("stock", "must_not_be_negative")
	}
	if input.Category == "" {
		return invalid("category", "required")
	}
	if _, err := s.categoryRepo.FindBySlug(ctx, input.Category); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return invalid("category", "unknown")
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	return nil
}

func (input ProductInput) applyTo(p *domain.Product) {
	p.Name = input.Name
	p.NameTH = strings.TrimSpace(input.NameTH)
	p.Description = input.Description
	p.DescriptionTH = input.DescriptionTH
	p.Price = input.Price
	p.ComparePrice = input.ComparePrice
	p.Category = input.Category
	p.ImageURL = strings.TrimSpace(input.ImageURL)
	p.Stock = input.Stock
	p.IsActive = input.IsActive
	p.IsFeatured = input.IsFeatured
	p.Material = input.Material
	p.Weight = input.Weight
}

// CreateProduct validates and stores a new product
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := s.validateProduct(ctx, &input); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.applyTo(product)

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, invalid("category", "unknown")
		}
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	return product, nil
}

// UpdateProduct replaces every editable field of an existing product
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := s.validateProduct(ctx, &input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.applyTo(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, invalid("category", "unknown")
		}
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", id.String()))
	return product, nil
}

// DeleteProduct removes a product. Placed orders keep their snapshots.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}
