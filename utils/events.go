package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Event subjects published by the order and feedback flows
const (
	SubjectOrderPlaced       = "orders.placed"
	SubjectOrderConfirmed    = "orders.confirmed"
	SubjectOrderCancelled    = "orders.cancelled"
	SubjectFeedbackSubmitted = "feedback.submitted"
)

// EventPublisher emits domain events for other services to consume
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// NatsPublisher publishes JSON encoded events on a NATS connection
type NatsPublisher struct {
	conn *nats.Conn
}

// NewNatsPublisher connects to the NATS server at url
func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("petopia-api"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsPublisher{conn: conn}, nil
}

func (p *NatsPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	if !p.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	return p.conn.Publish(subject, data)
}

// Close flushes pending messages and closes the connection
func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
