package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

const (
	usageStream = "GISPORTAL_USAGE"

	// UsageSubjectAll matches every usage event subject.
	UsageSubjectAll = "gisportal.usage.>"
)

// UsageSubject returns the subject a widget's usage events are published on.
func UsageSubject(widget string) string {
	return "gisportal.usage." + widget
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      usageStream,
		Subjects:  []string{UsageSubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishUsage publishes ev as a protobuf Struct on the widget's subject.
func (p *Publisher) PublishUsage(ctx context.Context, ev *domain.UsageEvent) error {
	data, err := EncodeUsage(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(UsageSubject(ev.Widget), data, nats.Context(ctx), nats.MsgId(ev.ID.String()))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("gisportal"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
