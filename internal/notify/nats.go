package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
)

// NATSPublisher forwards durable events to NATS subjects of the form
// <prefix>.<domain>.<kind>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// ConnectNATS dials url, retrying with exponential backoff until ctx is done
// or the retry budget is spent.
func ConnectNATS(ctx context.Context, url, prefix string) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	var conn *nats.Conn
	operation := func() error {
		c, err := nats.Connect(url, nats.Name("countdown-backend"), nats.Timeout(5*time.Second))
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	notify := func(err error, wait time.Duration) {
		slog.Warn("NATS connect failed, retrying", "url", url, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, 8), ctx), notify); err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	slog.Info("NATS publisher connected", "url", url, "prefix", prefix)
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// Publish sends e as JSON. Failures are logged and dropped.
func (p *NATSPublisher) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		slog.Error("Encode NATS event", "kind", e.Kind, "error", err)
		return
	}
	if err := p.conn.Publish(Subject(p.prefix, e), payload); err != nil {
		slog.Warn("Publish NATS event", "kind", e.Kind, "error", err)
	}
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Subject builds the NATS subject for e.
func Subject(prefix string, e Event) string {
	parts := make([]string, 0, 3)
	if prefix = strings.Trim(prefix, "."); prefix != "" {
		parts = append(parts, prefix)
	}
	if e.Domain != "" {
		parts = append(parts, e.Domain)
	}
	parts = append(parts, string(e.Kind))
	return strings.Join(parts, ".")
}
