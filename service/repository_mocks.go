package service

import (
	"context"
	"time"

	"cryptoledger/events"
	"cryptoledger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, email string, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) MoveToInvested(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) AddROI(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockDepositRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Deposit, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *MockDepositRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Deposit), args.Error(1)
}

func (m *MockDepositRepository) Settle(ctx context.Context, id, userID uuid.UUID, status models.DepositStatus, txHash *string, at time.Time) (*models.Deposit, error) {
	args := m.Called(ctx, id, userID, status, txHash, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

// MockInvestmentRepository is a mock implementation of InvestmentRepository
type MockInvestmentRepository struct {
	mock.Mock
}

func (m *MockInvestmentRepository) Create(ctx context.Context, investment *models.Investment) error {
	args := m.Called(ctx, investment)
	return args.Error(0)
}

func (m *MockInvestmentRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) LockByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Investment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) ListActive(ctx context.Context) ([]*models.Investment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Investment), args.Error(1)
}

func (m *MockInvestmentRepository) UpdateROI(ctx context.Context, id uuid.UUID, roiRate decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, id, roiRate, at)
	return args.Error(0)
}

// MockROIHistoryRepository is a mock implementation of ROIHistoryRepository
type MockROIHistoryRepository struct {
	mock.Mock
}

func (m *MockROIHistoryRepository) Record(ctx context.Context, history *models.ROIHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockROIHistoryRepository) ListByInvestment(ctx context.Context, investmentID uuid.UUID) ([]*models.ROIHistory, error) {
	args := m.Called(ctx, investmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ROIHistory), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) LockByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.WithdrawalStatus, txHash *string, processedAt *time.Time) error {
	args := m.Called(ctx, id, status, txHash, processedAt)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) DeletePending(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

// MockAccrualRunRepository is a mock implementation of AccrualRunRepository
type MockAccrualRunRepository struct {
	mock.Mock
}

func (m *MockAccrualRunRepository) Create(ctx context.Context, run *models.AccrualRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAccrualRunRepository) GetLatest(ctx context.Context) (*models.AccrualRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualRun), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// OfType returns the published events of one type
func (m *MockEventPublisher) OfType(eventType events.EventType) []events.Event {
	var matched []events.Event
	for _, e := range m.Events {
		if e.Type() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	userRepo           UserRepository
	balanceHistoryRepo BalanceHistoryRepository
	depositRepo        DepositRepository
	investmentRepo     InvestmentRepository
	roiHistoryRepo     ROIHistoryRepository
	withdrawalRepo     WithdrawalRepository
	eventPublisher     *MockEventPublisher
}

// MockRepositories groups the repositories handed out by a MockUnitOfWork
type MockRepositories struct {
	Users          *MockUserRepository
	BalanceHistory *MockBalanceHistoryRepository
	Deposits       *MockDepositRepository
	Investments    *MockInvestmentRepository
	ROIHistory     *MockROIHistoryRepository
	Withdrawals    *MockWithdrawalRepository
	Events         *MockEventPublisher
}

// NewMockRepositories creates a fresh set of repository mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		Users:          new(MockUserRepository),
		BalanceHistory: new(MockBalanceHistoryRepository),
		Deposits:       new(MockDepositRepository),
		Investments:    new(MockInvestmentRepository),
		ROIHistory:     new(MockROIHistoryRepository),
		Withdrawals:    new(MockWithdrawalRepository),
		Events:         &MockEventPublisher{},
	}
}

// AssertExpectations asserts every repository mock
func (r *MockRepositories) AssertExpectations(t mock.TestingT) {
	r.Users.AssertExpectations(t)
	r.BalanceHistory.AssertExpectations(t)
	r.Deposits.AssertExpectations(t)
	r.Investments.AssertExpectations(t)
	r.ROIHistory.AssertExpectations(t)
	r.Withdrawals.AssertExpectations(t)
}

// SetRepositories sets the repositories returned by the unit of work getters
func (m *MockUnitOfWork) SetRepositories(repos *MockRepositories) {
	m.userRepo = repos.Users
	m.balanceHistoryRepo = repos.BalanceHistory
	m.depositRepo = repos.Deposits
	m.investmentRepo = repos.Investments
	m.roiHistoryRepo = repos.ROIHistory
	m.withdrawalRepo = repos.Withdrawals
	m.eventPublisher = repos.Events
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) DepositRepository() DepositRepository {
	return m.depositRepo
}

func (m *MockUnitOfWork) InvestmentRepository() InvestmentRepository {
	return m.investmentRepo
}

func (m *MockUnitOfWork) ROIHistoryRepository() ROIHistoryRepository {
	return m.roiHistoryRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventPublisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
