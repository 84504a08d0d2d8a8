package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher is the subset of *nats.Conn used by the forwarder
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the wire format of a forwarded event
type Envelope struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    Event     `json:"payload"`
}

// NATSForwarder republishes bus events onto NATS subjects so other services can follow the economy
type NATSForwarder struct {
	conn          MessagePublisher
	subjectPrefix string
	now           func() time.Time
}

// ConnectNATS opens a NATS connection with reconnect logging
func ConnectNATS(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("economy-bot"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("url", url).Info("Connected to NATS")
	return nc, nil
}

// NewNATSForwarder creates a forwarder publishing under subjectPrefix
func NewNATSForwarder(conn MessagePublisher, subjectPrefix string) *NATSForwarder {
	if subjectPrefix == "" {
		subjectPrefix = "economy"
	}
	return &NATSForwarder{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		now:           time.Now,
	}
}

// Subject returns the NATS subject used for an event type
func (f *NATSForwarder) Subject(eventType EventType) string {
	return f.subjectPrefix + "." + string(eventType)
}

// Attach subscribes the forwarder to every economy event on the bus
func (f *NATSForwarder) Attach(bus *Bus) {
	for _, eventType := range AllEventTypes {
		bus.Subscribe(eventType, f.Handle)
	}
}

// Handle forwards a single event
func (f *NATSForwarder) Handle(ctx context.Context, event Event) {
	data, err := json.Marshal(Envelope{
		Type:       event.Type(),
		OccurredAt: f.now().UTC(),
		Payload:    event,
	})
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event for NATS")
		return
	}

	subject := f.Subject(event.Type())
	if err := f.conn.Publish(subject, data); err != nil {
		log.WithError(err).WithField("subject", subject).Error("Failed to publish event to NATS")
		return
	}

	log.WithField("subject", subject).Debug("Forwarded event to NATS")
}
