package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second

	// DefaultSubjectPrefix is prepended to the event type when publishing to NATS.
	DefaultSubjectPrefix = "kiosk.session"
)

// Envelope wraps every lifecycle event sent to subscribers.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an envelope with a fresh event id.
func NewEnvelope(eventType, sessionID string, at time.Time, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		SessionID: sessionID,
		Timestamp: at,
		Payload:   data,
	}, nil
}

// Publisher delivers session lifecycle events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
}

// NoOpPublisher drops every event.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(ctx context.Context, envelope Envelope) error { return nil }

// NATSPublisher publishes lifecycle events on core NATS subjects
type NATSPublisher struct {
	nc            *nats.Conn
	subjectPrefix string
}

// ConnectNATS dials NATS with reconnect handling and returns a publisher.
func ConnectNATS(natsURL, subjectPrefix string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("lightsout-kiosk"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return NewNATSPublisher(nc, subjectPrefix), nil
}

func NewNATSPublisher(nc *nats.Conn, subjectPrefix string) *NATSPublisher {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, subjectPrefix: subjectPrefix}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	return p.subjectPrefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, envelope Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(envelope.EventType))
	msg.Header.Set("Nats-Msg-Id", envelope.EventID)
	msg.Header.Set("Event-Type", envelope.EventType)
	msg.Header.Set("Event-ID", envelope.EventID)
	msg.Data = data
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", envelope.EventType, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
