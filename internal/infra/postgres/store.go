// Package postgres is the direct Postgres backend (BACKEND=postgres).
// It implements the same ports as the Supabase adapter over a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("postgres")

//go:embed schema.sql
var schema string

// Store implements port.Store on Postgres.
type Store struct {
	pool   *pgxpool.Pool
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// NewStore opens a pool on databaseURL and pings it.
func NewStore(ctx context.Context, databaseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &Store{pool: pool, cb: cb, cfg: cfg, logger: logger}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks connectivity for /healthz.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// run executes fn through the breaker and retry policy and maps pgx errors
// to domain errors. Domain errors do not count against the breaker.
func (s *Store) run(ctx context.Context, op string, fn func() error) error {
	var domainErr error
	err := resilience.Call(ctx, s.cb, s.cfg, func() error {
		err := fn()
		if mapped := toDomainError(err); mapped != nil {
			domainErr = mapped
			return nil
		}
		return err
	})
	if domainErr != nil {
		return domainErr
	}
	if err != nil {
		s.logger.Warn("postgres: query failed", zap.String("op", op), zap.Error(err))
		return &domain.ErrExternalService{Service: "postgres/" + op, Err: err}
	}
	return nil
}

// toDomainError returns nil for errors that are not domain errors.
func toDomainError(err error) error {
	if err == nil {
		return nil
	}
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return err
	}
	var val *domain.ErrValidation
	if errors.As(err, &val) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &domain.ErrConflict{Message: pgErr.Detail}
		case "23503":
			return &domain.ErrValidation{Field: pgErr.ConstraintName, Message: "referenced row does not exist"}
		case "22P02":
			return &domain.ErrValidation{Field: "id", Message: "invalid identifier"}
		}
	}
	return nil
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return err
}
