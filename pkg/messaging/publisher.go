package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/noah-isme/erp-api/pkg/config"
)

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	IsConnected() bool
}

// Publisher sends JSON events to NATS subjects under a common prefix.
// A nil *Publisher is valid and drops every event.
type Publisher struct {
	conn   conn
	prefix string
	logger *zap.Logger
}

// Connect dials NATS. An empty URL disables publishing and returns nil.
func Connect(cfg config.NotificationsConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.NATSURL) == "" {
		logger.Info("nats disabled; external notification channels will be skipped")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("erp-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, cfg.SubjectPrefix, logger), nil
}

func newPublisher(c conn, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = "notifications"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{conn: c, prefix: prefix, logger: logger}
}

// Subject joins the prefix and the given tokens with dots.
func (p *Publisher) Subject(tokens ...string) string {
	prefix := "notifications"
	if p != nil {
		prefix = p.prefix
	}
	return strings.Join(append([]string{prefix}, tokens...), ".")
}

// Publish marshals payload and sends it to subject.
func (p *Publisher) Publish(subject string, payload interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

// Healthy reports whether the underlying connection is up.
func (p *Publisher) Healthy() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
