package service

import (
	"context"
	"fmt"

	"buppha/internal/domain"
	"buppha/internal/repository"
)

const RecentOrdersOnDashboard = 5

// StatsService builds the admin dashboard
type StatsService interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
}

type statsService struct {
	statsRepo         repository.StatsRepository
	lowStockThreshold int
}

// NewStatsService creates a new instance of StatsService. Active products
// with stock below lowStockThreshold count as low stock.
func NewStatsService(statsRepo repository.StatsRepository, lowStockThreshold int) StatsService {
	return &statsService{
		statsRepo:         statsRepo,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *statsService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	stats, err := s.statsRepo.Dashboard(ctx, s.lowStockThreshold, RecentOrdersOnDashboard)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return stats, nil
}
