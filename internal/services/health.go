package services

import (
	"context"

	"github.com/selfmadecero/onevdr/internal/metrics"
	"gorm.io/gorm"
)

// HealthResult reports service liveness and database reachability
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	serviceName string
	db          *gorm.DB
}

// NewHealthService creates a new health service
func NewHealthService(serviceName string, db *gorm.DB) *HealthService {
	return &HealthService{serviceName: serviceName, db: db}
}

// Check implements the health check method. It pings the database and
// refreshes the connection pool gauges as a side effect.
func (s *HealthService) Check(ctx context.Context) (*HealthResult, error) {
	result := &HealthResult{
		Status:   "healthy",
		Service:  s.serviceName,
		Database: "up",
	}

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		result.Status = "degraded"
		result.Database = "down"
		return result, nil
	}

	stats := sqlDB.Stats()
	metrics.UpdateDBConnections(stats.OpenConnections, stats.Idle)

	return result, nil
}
