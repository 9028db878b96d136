package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the journal service.
const (
	SubjectPromptSaved     = "promptsmith.prompt.saved"
	SubjectPromptDeleted   = "promptsmith.prompt.deleted"
	SubjectReviewCompleted = "promptsmith.review.completed"
)

// PromptEvent is emitted whenever a prompt record is saved or deleted.
type PromptEvent struct {
	PromptID   string    `json:"prompt_id"`
	UserID     string    `json:"user_id"`
	IsTemplate bool      `json:"is_template"`
	Tags       []string  `json:"tags,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ReviewEvent is emitted after a review completes, whether the rating came
// from a live provider or a canned fallback.
type ReviewEvent struct {
	PromptID      string    `json:"prompt_id"`
	UserID        string    `json:"user_id"`
	Persona       string    `json:"persona"`
	AIUsed        bool      `json:"ai_used"`
	AverageRating float64   `json:"average_rating"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Client publishes journal events to NATS. A nil Client is valid and drops
// every publish, so callers never need to branch on whether eventing is
// configured.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// publish marshals and sends an event. Failures are logged, not returned:
// eventing is best-effort and must never fail a journal write.
func (c *Client) publish(subject string, data any) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("marshal event", "subject", subject, "error", err)
		return
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		c.logger.Warn("publish event", "subject", subject, "error", err)
	}
}

func (c *Client) PromptSaved(ev PromptEvent) {
	ev.OccurredAt = time.Now().UTC()
	c.publish(SubjectPromptSaved, ev)
}

func (c *Client) PromptDeleted(ev PromptEvent) {
	ev.OccurredAt = time.Now().UTC()
	c.publish(SubjectPromptDeleted, ev)
}

func (c *Client) ReviewCompleted(ev ReviewEvent) {
	ev.OccurredAt = time.Now().UTC()
	c.publish(SubjectReviewCompleted, ev)
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	c.conn.Close()
}
