package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jasongannon/api-docs-book/internal/config"
	"github.com/jasongannon/api-docs-book/internal/eventstore"
	"github.com/jasongannon/api-docs-book/internal/logfields"
)

// Notifier publishes build-completed events to a JetStream subject so other
// systems (chat bots, doc portals) can react to book updates.
type Notifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNotifier connects to NATS and ensures the configured stream exists.
func NewNotifier(cfg *config.NATSConfig) (*Notifier, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	slog.Info("build notifier connected",
		logfields.URL(cfg.URL),
		logfields.Subject(cfg.Subject))

	return &Notifier{conn: conn, js: js, subject: cfg.Subject}, nil
}

// BuildCompleted publishes one build event.
func (n *Notifier) BuildCompleted(ctx context.Context, ev eventstore.BuildEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := n.js.Publish(pubCtx, n.subject, data); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}

	slog.Debug("build event published",
		logfields.BuildID(ev.BuildID),
		logfields.Subject(n.subject))
	return nil
}

// Close drains the connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
