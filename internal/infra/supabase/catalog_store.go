package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

const defaultSearchLimit = 20

// ============================================================
// Regions
// ============================================================

func (c *Client) GetRegionBySlug(ctx context.Context, slug string) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRegionBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("region.slug", slug))

	return getOne[domain.Region](ctx, c, "regions", "regions?slug=eq."+url.QueryEscape(slug)+"&limit=1", "region", slug)
}

func (c *Client) GetRegion(ctx context.Context, id string) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRegion")
	defer span.End()

	return getOne[domain.Region](ctx, c, "regions", "regions?id=eq."+url.QueryEscape(id)+"&limit=1", "region", id)
}

func (c *Client) ListRegions(ctx context.Context) ([]domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRegions")
	defer span.End()

	return getMany[domain.Region](ctx, c, "regions", "regions?order=name.asc")
}

func (c *Client) CreateRegion(ctx context.Context, r *domain.Region) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateRegion")
	defer span.End()

	return insertOne[domain.Region](ctx, c, "regions", map[string]any{
		"name": r.Name,
		"slug": r.Slug,
	})
}

func (c *Client) UpdateRegion(ctx context.Context, r *domain.Region) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateRegion")
	defer span.End()

	return patchOne[domain.Region](ctx, c, "regions", r.ID, "region", map[string]any{
		"name": r.Name,
		"slug": r.Slug,
	})
}

func (c *Client) DeleteRegion(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteRegion")
	defer span.End()

	return c.call(ctx, "regions", func() error {
		return c.doDelete(ctx, "regions?id=eq."+url.QueryEscape(id))
	})
}

// ============================================================
// Cities
// ============================================================

// ListCities returns the cities of a region, or every city when regionID is empty.
func (c *Client) ListCities(ctx context.Context, regionID string) ([]domain.City, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCities")
	defer span.End()
	span.SetAttributes(attribute.String("region.id", regionID))

	path := "cities?order=name.asc"
	if regionID != "" {
		path += "&region_id=eq." + url.QueryEscape(regionID)
	}
	return getMany[domain.City](ctx, c, "cities", path)
}

func (c *Client) GetCity(ctx context.Context, id string) (*domain.City, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCity")
	defer span.End()

	return getOne[domain.City](ctx, c, "cities", "cities?id=eq."+url.QueryEscape(id)+"&limit=1", "city", id)
}

func (c *Client) CreateCity(ctx context.Context, city *domain.City) (*domain.City, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCity")
	defer span.End()

	return insertOne[domain.City](ctx, c, "cities", map[string]any{
		"region_id": city.RegionID,
		"name":      city.Name,
		"slug":      city.Slug,
	})
}

func (c *Client) UpdateCity(ctx context.Context, city *domain.City) (*domain.City, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCity")
	defer span.End()

	return patchOne[domain.City](ctx, c, "cities", city.ID, "city", map[string]any{
		"region_id": city.RegionID,
		"name":      city.Name,
		"slug":      city.Slug,
	})
}

func (c *Client) DeleteCity(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCity")
	defer span.End()

	return c.call(ctx, "cities", func() error {
		return c.doDelete(ctx, "cities?id=eq."+url.QueryEscape(id))
	})
}

// ============================================================
// Items
// ============================================================

// SearchItems runs the wildcard query: scope filters plus name or category
// ilike any term. With no terms it returns every item in scope.
func (c *Client) SearchItems(ctx context.Context, q domain.ItemQuery) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SearchItems")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("item.city_ids", q.CityIDs),
		attribute.StringSlice("item.terms", q.Terms),
	)

	path := "items?" + scopeFilter(q)
	if len(q.Terms) > 0 {
		conds := make([]string, 0, len(q.Terms)*2)
		for _, term := range q.Terms {
			if w, ok := wildcard(term); ok {
				conds = append(conds, "name.ilike."+w, "category.ilike."+w)
			}
		}
		// Terms were given but none survived escaping: nothing can match.
		if len(conds) == 0 {
			return []domain.Item{}, nil
		}
		path += "&or=(" + strings.Join(conds, ",") + ")"
	}
	path += fmt.Sprintf("&order=name.asc&limit=%d", limitOr(q.Limit))

	return getMany[domain.Item](ctx, c, "items", path)
}

// ItemsByTag returns the items in scope whose tags contain tag.
func (c *Client) ItemsByTag(ctx context.Context, q domain.ItemQuery, tag string) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ItemsByTag")
	defer span.End()
	span.SetAttributes(attribute.String("item.tag", tag))

	path := "items?" + scopeFilter(q) +
		"&tags=cs.%7B" + literal(strings.ToLower(tag)) + "%7D" +
		fmt.Sprintf("&order=name.asc&limit=%d", limitOr(q.Limit))

	return getMany[domain.Item](ctx, c, "items", path)
}

// ListItems is the admin listing; inactive items included.
func (c *Client) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListItems")
	defer span.End()

	path := "items?order=name.asc"
	if f.CityID != "" {
		path += "&city_id=eq." + url.QueryEscape(f.CityID)
	}
	if f.Kind != "" {
		path += "&kind=eq." + url.QueryEscape(string(f.Kind))
	}
	return getMany[domain.Item](ctx, c, "items", path)
}

func (c *Client) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetItem")
	defer span.End()

	return getOne[domain.Item](ctx, c, "items", "items?id=eq."+url.QueryEscape(id)+"&limit=1", "item", id)
}

func (c *Client) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateItem")
	defer span.End()

	return insertOne[domain.Item](ctx, c, "items", itemRow(item))
}

func (c *Client) UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateItem")
	defer span.End()

	return patchOne[domain.Item](ctx, c, "items", item.ID, "item", itemRow(item))
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteItem")
	defer span.End()

	return c.call(ctx, "items", func() error {
		return c.doDelete(ctx, "items?id=eq."+url.QueryEscape(id))
	})
}

// IncrementItemViews bumps view_count atomically through the
// increment_item_view(item_id uuid) database function.
func (c *Client) IncrementItemViews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.IncrementItemViews")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", id))

	return c.call(ctx, "items", func() error {
		_, err := c.doRPC(ctx, "increment_item_view", map[string]any{"item_id": id})
		return err
	})
}

// TopItems returns the most viewed items.
func (c *Client) TopItems(ctx context.Context, limit int) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Supabase.TopItems")
	defer span.End()

	return getMany[domain.Item](ctx, c, "items", fmt.Sprintf("items?order=view_count.desc&limit=%d", limit))
}

func itemRow(item *domain.Item) map[string]any {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	photos := item.Photos
	if photos == nil {
		photos = []string{}
	}
	return map[string]any{
		"city_id":     item.CityID,
		"kind":        item.Kind,
		"name":        item.Name,
		"category":    item.Category,
		"description": item.Description,
		"benefit":     item.Benefit,
		"address":     item.Address,
		"contact":     item.Contact,
		"tags":        tags,
		"hours":       item.Hours,
		"price_range": item.PriceRange,
		"photos":      photos,
		"active":      item.Active,
	}
}

func scopeFilter(q domain.ItemQuery) string {
	parts := make([]string, 0, 3)
	if len(q.CityIDs) > 0 {
		parts = append(parts, "city_id="+inList(q.CityIDs))
	}
	if q.Kind != "" {
		parts = append(parts, "kind=eq."+url.QueryEscape(string(q.Kind)))
	}
	if q.ActiveOnly {
		parts = append(parts, "active=is.true")
	}
	parts = append(parts, "select=*")
	return strings.Join(parts, "&")
}

func limitOr(n int) int {
	if n <= 0 {
		return defaultSearchLimit
	}
	return n
}

// ============================================================
// Generic row helpers
// ============================================================

func getMany[T any](ctx context.Context, c *Client, service, path string) ([]T, error) {
	var rows []T
	err := c.call(ctx, service, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			rows = []T{}
			return nil
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode %s: %w", service, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func getOne[T any](ctx context.Context, c *Client, service, path, resource, key string) (*T, error) {
	rows, err := getMany[T](ctx, c, service, path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: resource, ID: key}
	}
	return &rows[0], nil
}

func insertOne[T any](ctx context.Context, c *Client, table string, data map[string]any) (*T, error) {
	var out *T
	err := c.call(ctx, table, func() error {
		body, err := c.doPost(ctx, table, data)
		if err != nil {
			return err
		}
		var rows []T
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode %s insert: %w", table, err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert into %s returned no rows", table)
		}
		out = &rows[0]
		return nil
	})
	return out, err
}

func patchOne[T any](ctx context.Context, c *Client, table, id, resource string, data map[string]any) (*T, error) {
	var out *T
	err := c.call(ctx, table, func() error {
		body, err := c.doPatch(ctx, table+"?id=eq."+url.QueryEscape(id), data)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: resource, ID: id}
		}
		var rows []T
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode %s update: %w", table, err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: resource, ID: id}
		}
		out = &rows[0]
		return nil
	})
	return out, err
}
