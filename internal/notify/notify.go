// Package notify emits publish cycle events to NATS. Notification is opt-in
// and best-effort: delivery problems are the caller's to log, never to fail a
// cycle over.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitepub/internal/config"
)

// CycleEvent is the JSON payload published per completed cycle.
type CycleEvent struct {
	CycleID    string    `json:"cycle_id"`
	Outcome    string    `json:"outcome"`
	Revision   string    `json:"revision,omitempty"`
	Message    string    `json:"message,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notifier publishes cycle events to a NATS subject.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

// New connects to the configured NATS server. Returns nil (no notifier, no
// error) when notification is not configured.
func New(cfg config.NotifyConfig) (*Notifier, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("sitepub"),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	slog.Info("Cycle notifications enabled", "url", cfg.NATSURL, "subject", cfg.Subject)
	return &Notifier{conn: conn, subject: cfg.Subject}, nil
}

// Publish emits one cycle event. Safe on a nil Notifier.
func (n *Notifier) Publish(event CycleEvent) error {
	if n == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cycle event: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish cycle event: %w", err)
	}
	return n.conn.Flush()
}

// Close drains the connection. Safe on a nil Notifier.
func (n *Notifier) Close() {
	if n == nil || n.conn == nil {
		return
	}
	n.conn.Close()
}
