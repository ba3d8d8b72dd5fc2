package events

import (
	"context"
	"sync"

	"cryptoledger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange           EventType = "balance_change"
	EventTypeUserRegistered          EventType = "user_registered"
	EventTypeDepositCreated          EventType = "deposit_created"
	EventTypeDepositSettled          EventType = "deposit_settled"
	EventTypeInvestmentCreated       EventType = "investment_created"
	EventTypeROIAccrued              EventType = "roi_accrued"
	EventTypeWithdrawalRequested     EventType = "withdrawal_requested"
	EventTypeWithdrawalStatusChanged EventType = "withdrawal_status_changed"
	EventTypeWithdrawalCancelled     EventType = "withdrawal_cancelled"
)

// AllEventTypes lists every event type emitted by the ledger
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserRegistered,
	EventTypeDepositCreated,
	EventTypeDepositSettled,
	EventTypeInvestmentCreated,
	EventTypeROIAccrued,
	EventTypeWithdrawalRequested,
	EventTypeWithdrawalStatusChanged,
	EventTypeWithdrawalCancelled,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          uuid.UUID              `json:"userId"`
	OldBalance      decimal.Decimal        `json:"oldBalance"`
	NewBalance      decimal.Decimal        `json:"newBalance"`
	TransactionType models.TransactionType `json:"transactionType"`
	ChangeAmount    decimal.Decimal        `json:"changeAmount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserRegisteredEvent represents a new account
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// DepositCreatedEvent represents a new pending deposit
type DepositCreatedEvent struct {
	DepositID uuid.UUID       `json:"depositId"`
	UserID    uuid.UUID       `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  models.Currency `json:"currency"`
}

func (e DepositCreatedEvent) Type() EventType {
	return EventTypeDepositCreated
}

// DepositSettledEvent represents a deposit leaving the pending state
type DepositSettledEvent struct {
	DepositID uuid.UUID            `json:"depositId"`
	UserID    uuid.UUID            `json:"userId"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  models.Currency      `json:"currency"`
	Status    models.DepositStatus `json:"status"`
	TxHash    *string              `json:"txHash,omitempty"`
}

func (e DepositSettledEvent) Type() EventType {
	return EventTypeDepositSettled
}

// InvestmentCreatedEvent represents principal moved from balance into an investment
type InvestmentCreatedEvent struct {
	InvestmentID   uuid.UUID       `json:"investmentId"`
	UserID         uuid.UUID       `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       models.Currency `json:"currency"`
	MiningHashrate int             `json:"miningHashrate"`
}

func (e InvestmentCreatedEvent) Type() EventType {
	return EventTypeInvestmentCreated
}

// ROIAccruedEvent represents a persisted ROI update on an investment
type ROIAccruedEvent struct {
	InvestmentID uuid.UUID       `json:"investmentId"`
	UserID       uuid.UUID       `json:"userId"`
	CurrentROI   decimal.Decimal `json:"currentRoi"`
	Accrued      decimal.Decimal `json:"accrued"`
	DailyRate    decimal.Decimal `json:"dailyRate"`
}

func (e ROIAccruedEvent) Type() EventType {
	return EventTypeROIAccrued
}

// WithdrawalRequestedEvent represents a new pending withdrawal
type WithdrawalRequestedEvent struct {
	WithdrawalID  uuid.UUID       `json:"withdrawalId"`
	UserID        uuid.UUID       `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      models.Currency `json:"currency"`
	WalletAddress string          `json:"walletAddress"`
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// WithdrawalStatusChangedEvent represents a withdrawal state transition
type WithdrawalStatusChangedEvent struct {
	WithdrawalID uuid.UUID               `json:"withdrawalId"`
	UserID       uuid.UUID               `json:"userId"`
	Amount       decimal.Decimal         `json:"amount"`
	OldStatus    models.WithdrawalStatus `json:"oldStatus"`
	NewStatus    models.WithdrawalStatus `json:"newStatus"`
	TxHash       *string                 `json:"txHash,omitempty"`
}

func (e WithdrawalStatusChangedEvent) Type() EventType {
	return EventTypeWithdrawalStatusChanged
}

// WithdrawalCancelledEvent represents a pending withdrawal removed by its owner
type WithdrawalCancelledEvent struct {
	WithdrawalID uuid.UUID `json:"withdrawalId"`
	UserID       uuid.UUID `json:"userId"`
}

func (e WithdrawalCancelledEvent) Type() EventType {
	return EventTypeWithdrawalCancelled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every ledger event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a request
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus once the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for a commit
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Handlers outlive the request, so they get a context detached from its cancellation
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
