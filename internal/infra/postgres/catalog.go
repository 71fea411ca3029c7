package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

const defaultSearchLimit = 20

const itemColumns = `id::text, city_id::text, kind, name, category, description, benefit,
	address, contact, tags, hours, price_range, photos, active, view_count`

// ============================================================
// Regions
// ============================================================

func (s *Store) GetRegionBySlug(ctx context.Context, slug string) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetRegionBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("region.slug", slug))

	return s.getRegion(ctx, `WHERE slug = $1`, slug)
}

func (s *Store) GetRegion(ctx context.Context, id string) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetRegion")
	defer span.End()

	return s.getRegion(ctx, `WHERE id = $1`, id)
}

func (s *Store) getRegion(ctx context.Context, where, key string) (*domain.Region, error) {
	var r domain.Region
	err := s.run(ctx, "regions", func() error {
		err := s.pool.QueryRow(ctx, `SELECT id::text, name, slug, created_at FROM regions `+where, key).
			Scan(&r.ID, &r.Name, &r.Slug, &r.CreatedAt)
		return notFound(err, "region", key)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRegions(ctx context.Context) ([]domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListRegions")
	defer span.End()

	var out []domain.Region
	err := s.run(ctx, "regions", func() error {
		rows, err := s.pool.Query(ctx, `SELECT id::text, name, slug, created_at FROM regions ORDER BY name`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Region, error) {
			var r domain.Region
			err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.CreatedAt)
			return r, err
		})
		return err
	})
	return out, err
}

func (s *Store) CreateRegion(ctx context.Context, r *domain.Region) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateRegion")
	defer span.End()

	out := *r
	err := s.run(ctx, "regions", func() error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO regions (name, slug) VALUES ($1, $2)
			RETURNING id::text, created_at
		`, r.Name, r.Slug).Scan(&out.ID, &out.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateRegion(ctx context.Context, r *domain.Region) (*domain.Region, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateRegion")
	defer span.End()

	out := *r
	err := s.run(ctx, "regions", func() error {
		err := s.pool.QueryRow(ctx, `
			UPDATE regions SET name = $2, slug = $3 WHERE id = $1
			RETURNING created_at
		`, r.ID, r.Name, r.Slug).Scan(&out.CreatedAt)
		return notFound(err, "region", r.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteRegion(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteRegion")
	defer span.End()

	return s.exec(ctx, "regions", `DELETE FROM regions WHERE id = $1`, id)
}

// ============================================================
// Cities
// ============================================================

// ListCities returns the cities of a region, or every city when regionID is empty.
func (s *Store) ListCities(ctx context.Context, regionID string) ([]domain.City, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListCities")
	defer span.End()
	span.SetAttributes(attribute.String("region.id", regionID))

	var out []domain.City
	err := s.run(ctx, "cities", func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT id::text, region_id::text, name, slug FROM cities
			WHERE $1 = '' OR region_id::text = $1
			ORDER BY name
		`, regionID)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanCity)
		return err
	})
	return out, err
}

func (s *Store) GetCity(ctx context.Context, id string) (*domain.City, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetCity")
	defer span.End()

	var c domain.City
	err := s.run(ctx, "cities", func() error {
		rows, err := s.pool.Query(ctx, `SELECT id::text, region_id::text, name, slug FROM cities WHERE id = $1`, id)
		if err != nil {
			return err
		}
		c, err = pgx.CollectExactlyOneRow(rows, scanCity)
		return notFound(err, "city", id)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCity(ctx context.Context, city *domain.City) (*domain.City, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateCity")
	defer span.End()

	out := *city
	err := s.run(ctx, "cities", func() error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO cities (region_id, name, slug) VALUES ($1, $2, $3)
			RETURNING id::text
		`, city.RegionID, city.Name, city.Slug).Scan(&out.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateCity(ctx context.Context, city *domain.City) (*domain.City, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateCity")
	defer span.End()

	err := s.run(ctx, "cities", func() error {
		tag, err := s.pool.Exec(ctx, `
			UPDATE cities SET region_id = $2, name = $3, slug = $4 WHERE id = $1
		`, city.ID, city.RegionID, city.Name, city.Slug)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "city", ID: city.ID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := *city
	return &out, nil
}

func (s *Store) DeleteCity(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteCity")
	defer span.End()

	return s.exec(ctx, "cities", `DELETE FROM cities WHERE id = $1`, id)
}

func scanCity(row pgx.CollectableRow) (domain.City, error) {
	var c domain.City
	err := row.Scan(&c.ID, &c.RegionID, &c.Name, &c.Slug)
	return c, err
}

// ============================================================
// Items
// ============================================================

// SearchItems runs the wildcard query: scope filters plus name or category
// ILIKE any term. With no terms it returns every item in scope.
func (s *Store) SearchItems(ctx context.Context, q domain.ItemQuery) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.SearchItems")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("item.city_ids", q.CityIDs),
		attribute.StringSlice("item.terms", q.Terms),
	)

	patterns, ok := likePatterns(q.Terms)
	if !ok {
		return []domain.Item{}, nil
	}

	return s.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE (cardinality($1::text[]) = 0 OR city_id::text = ANY($1))
		  AND ($2 = '' OR kind = $2)
		  AND (NOT $3 OR active)
		  AND (cardinality($4::text[]) = 0 OR name ILIKE ANY($4) OR category ILIKE ANY($4))
		ORDER BY name
		LIMIT $5
	`, nonNil(q.CityIDs), string(q.Kind), q.ActiveOnly, patterns, limitOr(q.Limit))
}

// ItemsByTag returns the items in scope whose tags contain tag.
func (s *Store) ItemsByTag(ctx context.Context, q domain.ItemQuery, tag string) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ItemsByTag")
	defer span.End()
	span.SetAttributes(attribute.String("item.tag", tag))

	return s.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE (cardinality($1::text[]) = 0 OR city_id::text = ANY($1))
		  AND ($2 = '' OR kind = $2)
		  AND (NOT $3 OR active)
		  AND $4 = ANY(tags)
		ORDER BY name
		LIMIT $5
	`, nonNil(q.CityIDs), string(q.Kind), q.ActiveOnly, strings.ToLower(tag), limitOr(q.Limit))
}

// ListItems is the admin listing; inactive items included.
func (s *Store) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListItems")
	defer span.End()

	return s.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE ($1 = '' OR city_id::text = $1) AND ($2 = '' OR kind = $2)
		ORDER BY name
	`, f.CityID, string(f.Kind))
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetItem")
	defer span.End()

	var item domain.Item
	err := s.run(ctx, "items", func() error {
		rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		item, err = pgx.CollectExactlyOneRow(rows, scanItem)
		return notFound(err, "item", id)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateItem")
	defer span.End()

	var out domain.Item
	err := s.run(ctx, "items", func() error {
		rows, err := s.pool.Query(ctx, `
			INSERT INTO items (city_id, kind, name, category, description, benefit, address,
				contact, tags, hours, price_range, photos, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+itemColumns,
			item.CityID, string(item.Kind), item.Name, item.Category, item.Description, item.Benefit,
			item.Address, item.Contact, nonNil(item.Tags), item.Hours, item.PriceRange,
			nonNil(item.Photos), item.Active)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanItem)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateItem")
	defer span.End()

	var out domain.Item
	err := s.run(ctx, "items", func() error {
		rows, err := s.pool.Query(ctx, `
			UPDATE items SET city_id = $2, kind = $3, name = $4, category = $5, description = $6,
				benefit = $7, address = $8, contact = $9, tags = $10, hours = $11,
				price_range = $12, photos = $13, active = $14
			WHERE id = $1
			RETURNING `+itemColumns,
			item.ID, item.CityID, string(item.Kind), item.Name, item.Category, item.Description,
			item.Benefit, item.Address, item.Contact, nonNil(item.Tags), item.Hours,
			item.PriceRange, nonNil(item.Photos), item.Active)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanItem)
		return notFound(err, "item", item.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteItem")
	defer span.End()

	return s.exec(ctx, "items", `DELETE FROM items WHERE id = $1`, id)
}

// IncrementItemViews bumps view_count in place.
func (s *Store) IncrementItemViews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.IncrementItemViews")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", id))

	return s.run(ctx, "items", func() error {
		_, err := s.pool.Exec(ctx, `UPDATE items SET view_count = view_count + 1 WHERE id = $1`, id)
		return err
	})
}

// TopItems returns the most viewed items.
func (s *Store) TopItems(ctx context.Context, limit int) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Postgres.TopItems")
	defer span.End()

	return s.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items ORDER BY view_count DESC, name LIMIT $1
	`, limit)
}

func (s *Store) queryItems(ctx context.Context, sql string, args ...any) ([]domain.Item, error) {
	var out []domain.Item
	err := s.run(ctx, "items", func() error {
		rows, err := s.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanItem)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanItem(row pgx.CollectableRow) (domain.Item, error) {
	var it domain.Item
	var kind string
	err := row.Scan(&it.ID, &it.CityID, &kind, &it.Name, &it.Category, &it.Description,
		&it.Benefit, &it.Address, &it.Contact, &it.Tags, &it.Hours, &it.PriceRange,
		&it.Photos, &it.Active, &it.ViewCount)
	it.Kind = domain.ItemKind(kind)
	return it, err
}

func (s *Store) exec(ctx context.Context, op, sql string, args ...any) error {
	return s.run(ctx, op, func() error {
		_, err := s.pool.Exec(ctx, sql, args...)
		return err
	})
}

// likePatterns turns search terms into ILIKE patterns, dropping blank terms.
// ok is false when terms were given but none is usable.
func likePatterns(terms []string) (patterns []string, ok bool) {
	patterns = make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(t)+"%")
	}
	return patterns, len(terms) == 0 || len(patterns) > 0
}

// escapeLike escapes LIKE metacharacters so terms match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func limitOr(n int) int {
	if n <= 0 {
		return defaultSearchLimit
	}
	return n
}
