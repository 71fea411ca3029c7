package service

import (
	"context"
	"strings"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/nlp"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogService is the admin CRUD over regions, cities and items.
type CatalogService struct {
	store  port.CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store port.CatalogStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// ============================================================
// Regions
// ============================================================

func (s *CatalogService) ListRegions(ctx context.Context) ([]domain.Region, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.ListRegions")
	defer span.End()

	return s.store.ListRegions(ctx)
}

func (s *CatalogService) GetRegion(ctx context.Context, id string) (*domain.Region, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.GetRegion")
	defer span.End()

	return s.store.GetRegion(ctx, id)
}

func (s *CatalogService) CreateRegion(ctx context.Context, r *domain.Region) (*domain.Region, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.CreateRegion")
	defer span.End()

	if err := prepareNamed(&r.Name, &r.Slug); err != nil {
		return nil, err
	}
	r.ID = ""

	created, err := s.store.CreateRegion(ctx, r)
	if err != nil {
		return nil, err
	}
	s.logger.Info("region created", zap.String("id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

func (s *CatalogService) UpdateRegion(ctx context.Context, id string, r *domain.Region) (*domain.Region, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.UpdateRegion")
	defer span.End()

	if err := prepareNamed(&r.Name, &r.Slug); err != nil {
		return nil, err
	}
	r.ID = id
	return s.store.UpdateRegion(ctx, r)
}

func (s *CatalogService) DeleteRegion(ctx context.Context, id string) error {
	ctx, span := adminTracer.Start(ctx, "CatalogService.DeleteRegion")
	defer span.End()

	if err := s.store.DeleteRegion(ctx, id); err != nil {
		return err
	}
	s.logger.Info("region deleted", zap.String("id", id))
	return nil
}

// ============================================================
// Cities
// ============================================================

func (s *CatalogService) ListCities(ctx context.Context, regionID string) ([]domain.City, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.ListCities")
	defer span.End()

	if regionID == "" {
		return nil, &domain.ErrValidation{Field: "region_id", Message: "required"}
	}
	return s.store.ListCities(ctx, regionID)
}

func (s *CatalogService) GetCity(ctx context.Context, id string) (*domain.City, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.GetCity")
	defer span.End()

	return s.store.GetCity(ctx, id)
}

func (s *CatalogService) CreateCity(ctx context.Context, c *domain.City) (*domain.City, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.CreateCity")
	defer span.End()

	if err := s.validateCity(ctx, c); err != nil {
		return nil, err
	}
	c.ID = ""

	created, err := s.store.CreateCity(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("city created", zap.String("id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

func (s *CatalogService) UpdateCity(ctx context.Context, id string, c *domain.City) (*domain.City, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.UpdateCity")
	defer span.End()

	if err := s.validateCity(ctx, c); err != nil {
		return nil, err
	}
	c.ID = id
	return s.store.UpdateCity(ctx, c)
}

func (s *CatalogService) DeleteCity(ctx context.Context, id string) error {
	ctx, span := adminTracer.Start(ctx, "CatalogService.DeleteCity")
	defer span.End()

	return s.store.DeleteCity(ctx, id)
}

// validateCity checks the owning region exists.
func (s *CatalogService) validateCity(ctx context.Context, c *domain.City) error {
	if err := prepareNamed(&c.Name, &c.Slug); err != nil {
		return err
	}
	if c.RegionID == "" {
		return &domain.ErrValidation{Field: "region_id", Message: "required"}
	}
	if _, err := s.store.GetRegion(ctx, c.RegionID); err != nil {
		return err
	}
	return nil
}

// ============================================================
// Items
// ============================================================

func (s *CatalogService) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.ListItems")
	defer span.End()

	if f.Kind != "" && !f.Kind.Valid() {
		return nil, &domain.ErrValidation{Field: "kind", Message: "must be PARTNER or TIP"}
	}
	return s.store.ListItems(ctx, f)
}

func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.GetItem")
	defer span.End()

	return s.store.GetItem(ctx, id)
}

func (s *CatalogService) CreateItem(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.CreateItem")
	defer span.End()

	if err := s.validateItem(ctx, it); err != nil {
		return nil, err
	}
	it.ID = ""
	it.ViewCount = 0

	created, err := s.store.CreateItem(ctx, it)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("item.id", created.ID))
	s.logger.Info("item created",
		zap.String("id", created.ID),
		zap.String("kind", string(created.Kind)),
		zap.String("city_id", created.CityID),
	)
	return created, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, id string, it *domain.Item) (*domain.Item, error) {
	ctx, span := adminTracer.Start(ctx, "CatalogService.UpdateItem")
	defer span.End()

	if err := s.validateItem(ctx, it); err != nil {
		return nil, err
	}
	it.ID = id
	return s.store.UpdateItem(ctx, it)
}

func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	ctx, span := adminTracer.Start(ctx, "CatalogService.DeleteItem")
	defer span.End()

	return s.store.DeleteItem(ctx, id)
}

// validateItem fills defaults and checks the owning city exists.
// Tags are stored normalized so tag search can match folded terms.
func (s *CatalogService) validateItem(ctx context.Context, it *domain.Item) error {
	it.Name = strings.TrimSpace(it.Name)
	if it.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if it.CityID == "" {
		return &domain.ErrValidation{Field: "city_id", Message: "required"}
	}
	if it.Kind == "" {
		it.Kind = domain.ItemKindPartner
	}
	if !it.Kind.Valid() {
		return &domain.ErrValidation{Field: "kind", Message: "must be PARTNER or TIP"}
	}
	it.Tags = normalizeTags(it.Tags)
	if it.Photos == nil {
		it.Photos = []string{}
	}
	if _, err := s.store.GetCity(ctx, it.CityID); err != nil {
		return err
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := nlp.Normalize(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// prepareNamed trims the name and derives the slug when empty.
func prepareNamed(name, slug *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	*slug = nlp.Slugify(*slug)
	if *slug == "" {
		*slug = nlp.Slugify(*name)
	}
	if *slug == "" {
		return &domain.ErrValidation{Field: "slug", Message: "could not derive a slug from name"}
	}
	return nil
}
