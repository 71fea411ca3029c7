// Package events fans analytics events out to NATS so downstream consumers
// (dashboards, data pipeline) see them without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

const DefaultSubject = "bepit.analytics"

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

// NATSPublisher implements port.EventPublisher.
// Events go to "<subject>.<type>", e.g. bepit.analytics.partner_view.
type NATSPublisher struct {
	nc      conn
	subject string
	logger  *zap.Logger
}

// Connect dials url with reconnect-forever settings.
func Connect(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("bepit-bfa"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, subject, logger), nil
}

func newPublisher(nc conn, subject string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject, logger: logger}
}

// Publish sends ev as JSON. NATS buffers while reconnecting, so an error
// here means the connection is closed or the payload is invalid.
func (p *NATSPublisher) Publish(_ context.Context, ev *domain.AnalyticsEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(p.subject+"."+string(ev.Type), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Ping reports whether the connection is up, for /healthz.
func (p *NATSPublisher) Ping(context.Context) error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

// Close drains nothing and closes the connection.
func (p *NATSPublisher) Close() {
	p.nc.Close()
}
