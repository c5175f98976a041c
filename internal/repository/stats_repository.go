package repository

import (
	"context"
	"database/sql"
	"fmt"

	"buppha/internal/domain"
)

// StatsRepository aggregates figures for the admin dashboard
type StatsRepository interface {
	Dashboard(ctx context.Context, lowStockThreshold, recentLimit int) (*domain.DashboardStats, error)
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new instance of StatsRepository
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Dashboard(ctx context.Context, lowStockThreshold, recentLimit int) (*domain.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE payment_status = 'paid'),
			(SELECT COUNT(*) FROM orders WHERE status = 'pending'),
			(SELECT COUNT(*) FROM users WHERE role = 'customer'),
			(SELECT COUNT(*) FROM products WHERE is_active = TRUE AND stock < $1)
	`

	stats := &domain.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query, lowStockThreshold).Scan(
		&stats.TotalProducts,
		&stats.TotalOrders,
		&stats.TotalRevenue,
		&stats.PendingOrders,
		&stats.TotalCustomers,
		&stats.LowStockCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	recent, err := listOrders(ctx, r.db, OrderFilter{Limit: recentLimit})
	if err != nil {
		return nil, err
	}

	stats.RecentOrders = make([]domain.Order, 0, len(recent))
	for _, o := range recent {
		stats.RecentOrders = append(stats.RecentOrders, *o)
	}

	return stats, nil
}
