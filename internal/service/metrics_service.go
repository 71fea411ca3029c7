package service

import (
	"context"
	"time"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bepit-bfa-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	topItemsLimit   = 5
	defaultLogLimit = 100
)

// summaryStore is what the metrics service reads from.
type summaryStore interface {
	port.Counter
	port.AnalyticsStore
	TopItems(ctx context.Context, limit int) ([]domain.Item, error)
}

// MetricsService backs the admin metrics and logs endpoints.
type MetricsService struct {
	store   summaryStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewMetricsService creates a new metrics service.
func NewMetricsService(store summaryStore, metrics *observability.Metrics, logger *zap.Logger) *MetricsService {
	return &MetricsService{store: store, metrics: metrics, logger: logger}
}

// Summary returns entity counts, event counts and the top-5 items by views.
// All queries run concurrently; any failure fails the summary.
func (s *MetricsService) Summary(ctx context.Context) (*domain.MetricsSummary, error) {
	ctx, span := adminTracer.Start(ctx, "MetricsService.Summary")
	defer span.End()

	start := time.Now()
	out := &domain.MetricsSummary{}
	counts := []struct {
		table     string
		eventType domain.EventType
		dst       *int64
	}{
		{"regions", "", &out.Regions},
		{"cities", "", &out.Cities},
		{"items", "", &out.Items},
		{"interactions", "", &out.Interactions},
		{"analytics_events", domain.EventSearch, &out.Searches},
		{"analytics_events", domain.EventPartnerView, &out.PartnerViews},
		{"analytics_events", domain.EventFeedback, &out.Feedbacks},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := s.store.Count(gctx, c.table, c.eventType)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	var top []domain.Item
	g.Go(func() error {
		items, err := s.store.TopItems(gctx, topItemsLimit)
		top = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TopItems = make([]domain.TopItemMetric, 0, len(top))
	for _, it := range top {
		out.TopItems = append(out.TopItems, domain.TopItemMetric{
			ID:        it.ID,
			Name:      it.Name,
			Category:  it.Category,
			ViewCount: it.ViewCount,
		})
	}

	s.metrics.RecordRequestDuration("admin.metrics_summary", time.Since(start))
	return out, nil
}

// Runtime returns the in-process Prometheus counters.
func (s *MetricsService) Runtime() *domain.RuntimeMetrics {
	return s.metrics.GetRuntimeSnapshot()
}

// Logs returns analytics events, newest first.
func (s *MetricsService) Logs(ctx context.Context, f domain.EventFilter) ([]domain.AnalyticsEvent, error) {
	ctx, span := adminTracer.Start(ctx, "MetricsService.Logs")
	defer span.End()

	switch f.Type {
	case "", domain.EventSearch, domain.EventPartnerView, domain.EventFeedback:
	default:
		return nil, &domain.ErrValidation{Field: "type", Message: "must be search, partner_view or feedback"}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, &domain.ErrValidation{Field: "from", Message: "must be before to"}
	}
	if f.Limit <= 0 {
		f.Limit = defaultLogLimit
	}

	events, err := s.store.ListEvents(ctx, f)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.AnalyticsEvent{}
	}
	return events, nil
}
