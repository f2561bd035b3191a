package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/servicehub-platform/internal/repository"
)

const dashboardCacheKey = "reports:dashboard"

// ReportService aggregates cross-entity figures for the dashboard. Results
// are cached in Redis for a short TTL since the queries fan out.
type ReportService struct {
	tickets  *TicketService
	invoices *InvoiceService
	users    repository.UserRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs the service. cache may be nil, in which case
// every call recomputes.
func NewReportService(tickets *TicketService, invoices *InvoiceService, users repository.UserRepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	return &ReportService{
		tickets:  tickets,
		invoices: invoices,
		users:    users,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Dashboard is the aggregated reporting view.
type Dashboard struct {
	Tickets     TicketStats  `json:"tickets"`
	Billing     InvoiceStats `json:"billing"`
	UserCount   int          `json:"userCount"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// GetDashboard returns the dashboard, from cache when fresh.
func (s *ReportService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	ticketStats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, err
	}
	invoiceStats, err := s.invoices.Stats(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := s.users.Count(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Tickets:     *ticketStats,
		Billing:     *invoiceStats,
		UserCount:   userCount,
		GeneratedAt: s.now(),
	}
	s.toCache(ctx, dashboard)
	return dashboard, nil
}

func (s *ReportService) fromCache(ctx context.Context) *Dashboard {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var dashboard Dashboard
	if err := json.Unmarshal(raw, &dashboard); err != nil {
		s.logger.Warn("discarding malformed dashboard cache entry", zap.Error(err))
		return nil
	}
	return &dashboard
}

func (s *ReportService) toCache(ctx context.Context, dashboard *Dashboard) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(dashboard)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("unable to cache dashboard", zap.Error(err))
	}
}
