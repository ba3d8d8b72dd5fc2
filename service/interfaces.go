package service

import (
	"context"
	"time"

	"cryptoledger/events"
	"cryptoledger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, returning nil if absent
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create creates a new user with zero balances
	Create(ctx context.Context, email string, passwordHash string) (*models.User, error)

	// LockByID retrieves a user and holds a row lock until the transaction ends
	LockByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// DeductBalance deducts from a user's balance atomically, failing with ErrInsufficientFunds
	DeductBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// MoveToInvested deducts from balance and adds to total_invested in one statement
	MoveToInvested(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// AddROI adds accrued returns to a user's total_roi
	AddROI(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error)
}

// DepositRepository defines the interface for deposit data access
type DepositRepository interface {
	Create(ctx context.Context, deposit *models.Deposit) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Deposit, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error)

	// Settle moves a pending deposit to status. It returns nil if the deposit
	// is absent, not owned by userID, or no longer pending.
	Settle(ctx context.Context, id, userID uuid.UUID, status models.DepositStatus, txHash *string, at time.Time) (*models.Deposit, error)
}

// InvestmentRepository defines the interface for investment data access
type InvestmentRepository interface {
	Create(ctx context.Context, investment *models.Investment) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error)

	// LockByIDForUser retrieves an investment and holds a row lock until the transaction ends
	LockByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Investment, error)

	// ListActive returns every active investment across all users
	ListActive(ctx context.Context) ([]*models.Investment, error)

	// UpdateROI stores the latest daily rate and accrual timestamp
	UpdateROI(ctx context.Context, id uuid.UUID, roiRate decimal.Decimal, at time.Time) error
}

// ROIHistoryRepository defines the interface for the append-only ROI log
type ROIHistoryRepository interface {
	Record(ctx context.Context, history *models.ROIHistory) error

	// ListByInvestment returns history entries, newest first
	ListByInvestment(ctx context.Context, investmentID uuid.UUID) ([]*models.ROIHistory, error)
}

// WithdrawalRepository defines the interface for withdrawal data access
type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Withdrawal, error)

	// LockByIDForUser retrieves a withdrawal and holds a row lock until the transaction ends
	LockByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Withdrawal, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.WithdrawalStatus, txHash *string, processedAt *time.Time) error

	// DeletePending removes a withdrawal only while it is pending, reporting whether a row was removed
	DeletePending(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// AccrualRunRepository defines the interface for accrual sweep records
type AccrualRunRepository interface {
	Create(ctx context.Context, run *models.AccrualRun) error
	GetLatest(ctx context.Context) (*models.AccrualRun, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// AuthService defines the interface for account and token operations
type AuthService interface {
	// Register creates a new account
	Register(ctx context.Context, email, password string) (*models.User, error)

	// Login verifies credentials and issues a bearer token
	Login(ctx context.Context, email, password string) (string, *models.User, error)

	// VerifyToken validates a bearer token and returns the user it was issued to
	VerifyToken(ctx context.Context, token string) (*models.User, error)

	// Profile returns the current balances of a user
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// CreateDepositRequest carries the input for a new deposit
type CreateDepositRequest struct {
	Amount        decimal.Decimal
	Currency      models.Currency
	WalletAddress string
}

// DepositService defines the interface for deposit operations
type DepositService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateDepositRequest) (*models.Deposit, error)

	// Confirm settles a pending deposit as confirmed or failed, crediting balance on confirmation
	Confirm(ctx context.Context, userID, depositID uuid.UUID, status models.DepositStatus, txHash *string) (*models.Deposit, error)
}

// InvestmentService defines the interface for investment operations
type InvestmentService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.InvestmentSummary, error)
	Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency models.Currency) (*models.Investment, error)
	Get(ctx context.Context, userID, investmentID uuid.UUID) (*models.InvestmentDetail, error)

	// UpdateROI persists the ROI accrued up to now
	UpdateROI(ctx context.Context, userID, investmentID uuid.UUID) (*models.ROIUpdateResult, error)

	// ListActive returns every active investment, for the accrual worker
	ListActive(ctx context.Context) ([]*models.Investment, error)
}

// CreateWithdrawalRequest carries the input for a new withdrawal
type CreateWithdrawalRequest struct {
	Amount        decimal.Decimal
	Currency      models.Currency
	WalletAddress string
}

// WithdrawalService defines the interface for withdrawal operations
type WithdrawalService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error)
	Get(ctx context.Context, userID, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateWithdrawalRequest) (*models.Withdrawal, error)

	// Process moves a withdrawal to processing, completed or rejected, debiting balance on completion
	Process(ctx context.Context, userID, withdrawalID uuid.UUID, status models.WithdrawalStatus, txHash *string) (*models.Withdrawal, error)

	// Cancel removes a withdrawal while it is still pending
	Cancel(ctx context.Context, userID, withdrawalID uuid.UUID) error
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	DepositRepository() DepositRepository
	InvestmentRepository() InvestmentRepository
	ROIHistoryRepository() ROIHistoryRepository
	WithdrawalRepository() WithdrawalRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
