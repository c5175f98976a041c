package repository

import (
	"errors"

	"buppha/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const productColumns = `p.id, p.name, p.name_th, p.description, p.description_th, p.price, p.compare_price,
	p.category, p.image_url, p.stock, p.is_active, p.is_featured, p.material, p.weight, p.created_at, p.updated_at`

func productDest(p *domain.Product) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.NameTH,
		&p.Description,
		&p.DescriptionTH,
		&p.Price,
		&p.ComparePrice,
		&p.Category,
		&p.ImageURL,
		&p.Stock,
		&p.IsActive,
		&p.IsFeatured,
		&p.Material,
		&p.Weight,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	if err := row.Scan(productDest(product)...); err != nil {
		return nil, err
	}
	return product, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
