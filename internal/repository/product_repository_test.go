package repository

import (
	"context"
	"testing"
	"time"

	"buppha/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Feature: storefront, Property: product creation preserves attributes
func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)
	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, satang int64, stock int, featured bool, category string) bool {
			now := time.Now()
			product := &domain.Product{
				ID:         uuid.New(),
				Name:       name,
				NameTH:     "สินค้า " + name,
				Price:      decimal.New(satang, -2),
				Category:   category,
				Stock:      stock,
				IsActive:   true,
				IsFeatured: featured,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := repo.Create(ctx, product); err != nil {
				t.Logf("FAIL: create: %v", err)
				return false
			}
			defer repo.Delete(ctx, product.ID)

			retrieved, err := repo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: find: %v", err)
				return false
			}

			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: price mismatch. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}
			if retrieved.ComparePrice.Valid {
				t.Logf("FAIL: compare price should be NULL")
				return false
			}
			return retrieved.Name == product.Name &&
				retrieved.NameTH == product.NameTH &&
				retrieved.Category == product.Category &&
				retrieved.Stock == product.Stock &&
				retrieved.IsFeatured == product.IsFeatured
		},
		gen.RegexMatch(`[A-Z][a-z]{2,20}`),
		gen.Int64Range(1, 99999999),
		gen.IntRange(0, 1000),
		gen.Bool(),
		gen.OneConstOf("necklaces", "earrings", "bracelets", "rings"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductRepository_UnknownCategory(t *testing.T) {
	repo := NewProductRepository(testDB)
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "Orphan",
		Price:     decimal.NewFromInt(100),
		Category:  "anklets",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := repo.Create(context.Background(), product)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestProductRepository_UpdateAndDelete(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()
	product := createTestProduct(t, 1500, 5)

	product.Price = decimal.RequireFromString("1799.50")
	product.ComparePrice = decimal.NewNullDecimal(decimal.NewFromInt(1999))
	product.IsActive = false
	require.NoError(t, repo.Update(ctx, product))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("1799.50")))
	assert.True(t, found.ComparePrice.Valid)
	assert.False(t, found.IsActive)

	require.NoError(t, repo.Delete(ctx, product.ID))
	assert.ErrorIs(t, repo.Delete(ctx, product.ID), ErrProductNotFound)
	_, err = repo.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	missing := *product
	missing.ID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, &missing), ErrProductNotFound)
}

func TestProductRepository_ListSeedCatalog(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	t.Run("category filter", func(t *testing.T) {
		products, total, err := repo.List(ctx, ProductFilter{Category: "necklaces", ActiveOnly: true, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, p := range products {
			assert.Equal(t, "necklaces", p.Category)
		}
	})

	t.Run("featured and sorted by price", func(t *testing.T) {
		products, _, err := repo.List(ctx, ProductFilter{
			FeaturedOnly: true, ActiveOnly: true, SortBy: "price", SortOrder: SortOrderAsc,
		})
		require.NoError(t, err)
		require.NotEmpty(t, products)
		for i := 1; i < len(products); i++ {
			assert.True(t, products[i-1].Price.LessThanOrEqual(products[i].Price))
			assert.True(t, products[i].IsFeatured)
		}
	})

	t.Run("thai search", func(t *testing.T) {
		products, total, err := repo.List(ctx, ProductFilter{Search: "ดอกบัว", ActiveOnly: true})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, "Lotus Bloom Necklace", products[0].Name)
	})

	t.Run("case insensitive search", func(t *testing.T) {
		_, total, err := repo.List(ctx, ProductFilter{Search: "PEONY", ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, total, err := repo.List(ctx, ProductFilter{Category: "all", PageSize: 3, Page: 1, SortBy: "name", SortOrder: SortOrderAsc})
		require.NoError(t, err)
		page2, _, err := repo.List(ctx, ProductFilter{Category: "all", PageSize: 3, Page: 2, SortBy: "name", SortOrder: SortOrderAsc})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, 8)
		assert.Len(t, page1, 3)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})

	t.Run("inactive products are hidden from storefront listing", func(t *testing.T) {
		hidden := createTestProduct(t, 500, 3)
		hidden.IsActive = false
		require.NoError(t, repo.Update(ctx, hidden))

		_, total, err := repo.List(ctx, ProductFilter{Search: hidden.Name, ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		_, total, err = repo.List(ctx, ProductFilter{Search: hidden.Name})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestCategoryRepository(t *testing.T) {
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 4)
	assert.Equal(t, "necklaces", categories[0].Slug)
	assert.Equal(t, "rings", categories[3].Slug)

	ring, err := repo.FindBySlug(ctx, "rings")
	require.NoError(t, err)
	assert.Equal(t, "แหวน", ring.NameTH)

	_, err = repo.FindBySlug(ctx, "anklets")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
