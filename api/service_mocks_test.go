package api

import (
	"context"

	"cryptoledger/models"
	"cryptoledger/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *mockAuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockDepositService struct {
	mock.Mock
}

func (m *mockDepositService) List(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Deposit), args.Error(1)
}

func (m *mockDepositService) Create(ctx context.Context, userID uuid.UUID, req service.CreateDepositRequest) (*models.Deposit, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *mockDepositService) Confirm(ctx context.Context, userID, depositID uuid.UUID, status models.DepositStatus, txHash *string) (*models.Deposit, error) {
	args := m.Called(ctx, userID, depositID, status, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

type mockInvestmentService struct {
	mock.Mock
}

func (m *mockInvestmentService) List(ctx context.Context, userID uuid.UUID) ([]*models.InvestmentSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InvestmentSummary), args.Error(1)
}

func (m *mockInvestmentService) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency models.Currency) (*models.Investment, error) {
	args := m.Called(ctx, userID, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investment), args.Error(1)
}

func (m *mockInvestmentService) Get(ctx context.Context, userID, investmentID uuid.UUID) (*models.InvestmentDetail, error) {
	args := m.Called(ctx, userID, investmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvestmentDetail), args.Error(1)
}

func (m *mockInvestmentService) UpdateROI(ctx context.Context, userID, investmentID uuid.UUID) (*models.ROIUpdateResult, error) {
	args := m.Called(ctx, userID, investmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ROIUpdateResult), args.Error(1)
}

func (m *mockInvestmentService) ListActive(ctx context.Context) ([]*models.Investment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Investment), args.Error(1)
}

type mockWithdrawalService struct {
	mock.Mock
}

func (m *mockWithdrawalService) List(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) Get(ctx context.Context, userID, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, userID, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) Create(ctx context.Context, userID uuid.UUID, req service.CreateWithdrawalRequest) (*models.Withdrawal, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) Process(ctx context.Context, userID, withdrawalID uuid.UUID, status models.WithdrawalStatus, txHash *string) (*models.Withdrawal, error) {
	args := m.Called(ctx, userID, withdrawalID, status, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) Cancel(ctx context.Context, userID, withdrawalID uuid.UUID) error {
	args := m.Called(ctx, userID, withdrawalID)
	return args.Error(0)
}
