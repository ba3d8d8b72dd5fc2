package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const sourceService = "cryptoledger"

// Envelope wraps an event payload for the message bus
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

// subjects maps each event type onto its NATS subject
var subjects = map[EventType]string{
	EventTypeBalanceChange:           "ledger.balance.changed",
	EventTypeUserRegistered:          "ledger.user.registered",
	EventTypeDepositCreated:          "ledger.deposit.created",
	EventTypeDepositSettled:          "ledger.deposit.settled",
	EventTypeInvestmentCreated:       "ledger.investment.created",
	EventTypeROIAccrued:              "ledger.investment.roi_accrued",
	EventTypeWithdrawalRequested:     "ledger.withdrawal.requested",
	EventTypeWithdrawalStatusChanged: "ledger.withdrawal.status_changed",
	EventTypeWithdrawalCancelled:     "ledger.withdrawal.cancelled",
}

// SubjectFor returns the NATS subject for an event
func SubjectFor(event Event) string {
	if subject, ok := subjects[event.Type()]; ok {
		return subject
	}
	return "ledger.unknown." + strings.ToLower(string(event.Type()))
}

// NewEnvelope serializes an event into a message bus envelope
func NewEnvelope(event Event, now time.Time) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     now.UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}

// NATSPublisher forwards committed ledger events to NATS
type NATSPublisher struct {
	servers              string
	nc                   *nats.Conn
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// NewNATSPublisher creates a publisher for the given comma-separated server list
func NewNATSPublisher(servers string) *NATSPublisher {
	return &NATSPublisher{
		servers:              servers,
		reconnectDelay:       2 * time.Second,
		maxReconnectAttempts: 10,
	}
}

// Connect establishes a connection to the NATS servers
func (p *NATSPublisher) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(sourceService),
		nats.MaxReconnects(p.maxReconnectAttempts),
		nats.ReconnectWait(p.reconnectDelay),
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

	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(p.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p.nc = nc

	log.WithField("servers", p.servers).Info("Connected to NATS")
	return nil
}

// Publish sends a single event to its subject
func (p *NATSPublisher) Publish(event Event) error {
	if p.nc == nil {
		return fmt.Errorf("not connected to NATS")
	}

	data, err := NewEnvelope(event, time.Now())
	if err != nil {
		return err
	}

	subject := SubjectFor(event)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Handler adapts the publisher to a bus subscription
func (p *NATSPublisher) Handler() Handler {
	return func(ctx context.Context, event Event) {
		if err := p.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event to NATS")
		}
	}
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain NATS connection")
		p.nc.Close()
	}
}
