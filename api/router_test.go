package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptoledger/metrics"
	"cryptoledger/models"
	"cryptoledger/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validToken = "valid-token"

type testServer struct {
	router      http.Handler
	user        *models.User
	auth        *mockAuthService
	deposits    *mockDepositService
	investments *mockInvestmentService
	withdrawals *mockWithdrawalService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		user: &models.User{
			ID:      uuid.New(),
			Email:   "investor@example.com",
			Balance: decimal.RequireFromString("10"),
		},
		auth:        new(mockAuthService),
		deposits:    new(mockDepositService),
		investments: new(mockInvestmentService),
		withdrawals: new(mockWithdrawalService),
	}
	s.auth.On("VerifyToken", mock.Anything, validToken).Return(s.user, nil).Maybe()

	s.router = NewRouter(Services{
		Auth:        s.auth,
		Deposits:    s.deposits,
		Investments: s.investments,
		Withdrawals: s.withdrawals,
	}, time.Second)

	t.Cleanup(func() {
		s.auth.AssertExpectations(t)
		s.deposits.AssertExpectations(t)
		s.investments.AssertExpectations(t)
		s.withdrawals.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+validToken)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func decimalEq(s string) any {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t)
		rec, body := s.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("database unreachable", func(t *testing.T) {
		router := NewRouter(Services{
			Health: func(ctx context.Context) error { return errors.New("connection refused") },
		}, 0)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Register()
	s := newTestServer(t)

	s.deposits.On("List", mock.Anything, s.user.ID).Return([]*models.Deposit{}, nil)
	s.do(t, http.MethodGet, "/api/deposits", nil)

	assert.Positive(t, testutil.CollectAndCount(metrics.HTTPRequestDuration))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledger_http_request_duration_seconds")
}

func TestAuthentication(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("VerifyToken", mock.Anything, "").
			Return(nil, service.NewError(service.ErrUnauthorized, "Access token required"))

		req := httptest.NewRequest(http.MethodGet, "/api/deposits", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Access token required"}`, rec.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("VerifyToken", mock.Anything, "forged").
			Return(nil, service.NewError(service.ErrForbidden, "Invalid token"))

		req := httptest.NewRequest(http.MethodGet, "/api/withdrawals", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("VerifyToken", mock.Anything, "stale").
			Return(nil, service.NewError(service.ErrUnauthorized, "Token expired"))

		req := httptest.NewRequest(http.MethodGet, "/api/investments", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Token expired"}`, rec.Body.String())
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("register", func(t *testing.T) {
		s := newTestServer(t)
		created := &models.User{ID: uuid.New(), Email: "new@example.com"}
		s.auth.On("Register", mock.Anything, "new@example.com", "password123").Return(created, nil)

		rec, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
			"email": "new@example.com", "password": "password123",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "new@example.com", body["user"].(map[string]any)["email"])
	})

	t.Run("register duplicate", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("Register", mock.Anything, "dup@example.com", "password123").
			Return(nil, service.NewError(service.ErrValidation, "email already registered"))

		rec, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
			"email": "dup@example.com", "password": "password123",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "email already registered", body["error"])
	})

	t.Run("login", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("Login", mock.Anything, "investor@example.com", "password123").Return("signed.jwt.token", s.user, nil)

		rec, body := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "investor@example.com", "password": "password123",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "signed.jwt.token", body["token"])
	})

	t.Run("login rejected", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("Login", mock.Anything, "investor@example.com", "wrong").
			Return("", nil, service.NewError(service.ErrUnauthorized, "Invalid email or password"))

		rec, body := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "investor@example.com", "password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", body["error"])
	})

	t.Run("me", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("Profile", mock.Anything, s.user.ID).Return(s.user, nil)

		rec, body := s.do(t, http.MethodGet, "/api/auth/me", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", body["user"].(map[string]any)["balance"])
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t)
		rec, body := s.do(t, http.MethodPost, "/api/auth/login", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", body["error"])
	})
}

func TestDepositRoutes(t *testing.T) {
	wallet := "0x" + fmt.Sprintf("%040d", 1)

	t.Run("list", func(t *testing.T) {
		s := newTestServer(t)
		s.deposits.On("List", mock.Anything, s.user.ID).Return(nil, nil)

		rec, body := s.do(t, http.MethodGet, "/api/deposits", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, body["deposits"])
	})

	t.Run("create", func(t *testing.T) {
		s := newTestServer(t)
		deposit := &models.Deposit{
			ID:            uuid.New(),
			Amount:        decimal.RequireFromString("5"),
			Currency:      models.CurrencyBTC,
			WalletAddress: wallet,
			Status:        models.DepositStatusPending,
		}
		s.deposits.On("Create", mock.Anything, s.user.ID, mock.MatchedBy(func(req service.CreateDepositRequest) bool {
			return req.Amount.Equal(decimal.RequireFromString("5")) &&
				req.Currency == models.CurrencyBTC &&
				req.WalletAddress == wallet
		})).Return(deposit, nil)

		rec, body := s.do(t, http.MethodPost, "/api/deposits", map[string]any{
			"amount": 5, "currency": "BTC", "walletAddress": wallet,
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Deposit request created successfully", body["message"])
		assert.Equal(t, "pending", body["deposit"].(map[string]any)["status"])
	})

	t.Run("create invalid", func(t *testing.T) {
		s := newTestServer(t)
		s.deposits.On("Create", mock.Anything, s.user.ID, mock.Anything).
			Return(nil, service.NewError(service.ErrValidation, "Wallet address must be 42 characters"))

		rec, body := s.do(t, http.MethodPost, "/api/deposits", map[string]any{
			"amount": 5, "currency": "BTC", "walletAddress": "0x1",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Wallet address must be 42 characters", body["error"])
	})

	t.Run("confirm", func(t *testing.T) {
		s := newTestServer(t)
		depositID := uuid.New()
		s.deposits.On("Confirm", mock.Anything, s.user.ID, depositID, models.DepositStatusConfirmed, (*string)(nil)).
			Return(&models.Deposit{ID: depositID, Status: models.DepositStatusConfirmed}, nil)

		rec, body := s.do(t, http.MethodPut, "/api/deposits/"+depositID.String()+"/confirm", map[string]any{
			"status": "confirmed",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Deposit confirmed successfully", body["message"])
		assert.Equal(t, depositID.String(), body["depositId"])
	})

	t.Run("confirm twice", func(t *testing.T) {
		s := newTestServer(t)
		depositID := uuid.New()
		s.deposits.On("Confirm", mock.Anything, s.user.ID, depositID, models.DepositStatusConfirmed, (*string)(nil)).
			Return(nil, service.NewError(service.ErrInvalidStateTransition, "Deposit already confirmed"))

		rec, body := s.do(t, http.MethodPut, "/api/deposits/"+depositID.String()+"/confirm", map[string]any{
			"status": "confirmed",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Deposit already confirmed", body["error"])
	})

	t.Run("malformed id", func(t *testing.T) {
		s := newTestServer(t)

		rec, body := s.do(t, http.MethodPut, "/api/deposits/not-a-uuid/confirm", map[string]any{
			"status": "confirmed",
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Deposit not found", body["error"])
	})
}

func TestInvestmentRoutes(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		s := newTestServer(t)
		investment := &models.Investment{
			ID:             uuid.New(),
			Amount:         decimal.RequireFromString("4"),
			Currency:       models.CurrencyETH,
			MiningHashrate: 1200,
			Status:         models.InvestmentStatusActive,
		}
		s.investments.On("Create", mock.Anything, s.user.ID, decimalEq("4"), models.CurrencyETH).Return(investment, nil)

		rec, body := s.do(t, http.MethodPost, "/api/investments", map[string]any{
			"amount": "4", "currency": "ETH",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Investment created successfully", body["message"])
		assert.EqualValues(t, 1200, body["investment"].(map[string]any)["miningHashrate"])
	})

	t.Run("insufficient balance from guarded debit", func(t *testing.T) {
		s := newTestServer(t)
		s.investments.On("Create", mock.Anything, s.user.ID, decimalEq("400"), models.CurrencyETH).
			Return(nil, fmt.Errorf("failed to move balance: %w", service.ErrInsufficientFunds))

		rec, body := s.do(t, http.MethodPost, "/api/investments", map[string]any{
			"amount": 400, "currency": "ETH",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Insufficient balance", body["error"])
	})

	t.Run("list", func(t *testing.T) {
		s := newTestServer(t)
		summary := &models.InvestmentSummary{
			Investment:  &models.Investment{ID: uuid.New(), Currency: models.CurrencyBTC},
			ROISnapshot: models.ROISnapshot{CurrentROI: decimal.RequireFromString("0.4275")},
		}
		s.investments.On("List", mock.Anything, s.user.ID).Return([]*models.InvestmentSummary{summary}, nil)

		rec, body := s.do(t, http.MethodGet, "/api/investments", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		list := body["investments"].([]any)
		require.Len(t, list, 1)
		assert.Equal(t, "0.4275", list[0].(map[string]any)["currentROI"])
		assert.Equal(t, "BTC", list[0].(map[string]any)["currency"])
	})

	t.Run("get", func(t *testing.T) {
		s := newTestServer(t)
		investmentID := uuid.New()
		s.investments.On("Get", mock.Anything, s.user.ID, investmentID).Return(&models.InvestmentDetail{
			Investment: models.InvestmentSummary{Investment: &models.Investment{ID: investmentID}},
		}, nil)

		rec, body := s.do(t, http.MethodGet, "/api/investments/"+investmentID.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, investmentID.String(), body["investment"].(map[string]any)["id"])
		assert.Equal(t, []any{}, body["roiHistory"])
	})

	t.Run("get not found", func(t *testing.T) {
		s := newTestServer(t)
		investmentID := uuid.New()
		s.investments.On("Get", mock.Anything, s.user.ID, investmentID).
			Return(nil, service.NewError(service.ErrNotFound, "Investment not found"))

		rec, body := s.do(t, http.MethodGet, "/api/investments/"+investmentID.String(), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Investment not found", body["error"])
	})

	t.Run("update roi", func(t *testing.T) {
		s := newTestServer(t)
		investmentID := uuid.New()
		s.investments.On("UpdateROI", mock.Anything, s.user.ID, investmentID).Return(&models.ROIUpdateResult{
			InvestmentID: investmentID,
			CurrentROI:   decimal.RequireFromString("0.4275"),
			Accrued:      decimal.RequireFromString("0.1"),
			TotalValue:   decimal.RequireFromString("100.4275"),
		}, nil)

		rec, body := s.do(t, http.MethodPut, "/api/investments/"+investmentID.String()+"/update-roi", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Investment ROI updated successfully", body["message"])
		assert.Equal(t, "100.4275", body["totalValue"])
	})
}

func TestWithdrawalRoutes(t *testing.T) {
	t.Run("create below minimum", func(t *testing.T) {
		s := newTestServer(t)
		s.withdrawals.On("Create", mock.Anything, s.user.ID, mock.Anything).
			Return(nil, service.NewError(service.ErrValidation, "Minimum withdrawal amount is 0.001"))

		rec, body := s.do(t, http.MethodPost, "/api/withdrawals", map[string]any{
			"amount": "0.0001", "currency": "ETH", "walletAddress": "0x",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Minimum withdrawal amount is 0.001", body["error"])
	})

	t.Run("process completed", func(t *testing.T) {
		s := newTestServer(t)
		withdrawalID := uuid.New()
		s.withdrawals.On("Process", mock.Anything, s.user.ID, withdrawalID, models.WithdrawalStatusCompleted, (*string)(nil)).
			Return(&models.Withdrawal{ID: withdrawalID, Status: models.WithdrawalStatusCompleted}, nil)

		rec, body := s.do(t, http.MethodPut, "/api/withdrawals/"+withdrawalID.String()+"/process", map[string]any{
			"status": "completed",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Withdrawal completed successfully", body["message"])
		assert.Equal(t, withdrawalID.String(), body["withdrawalId"])
	})

	t.Run("process already completed", func(t *testing.T) {
		s := newTestServer(t)
		withdrawalID := uuid.New()
		s.withdrawals.On("Process", mock.Anything, s.user.ID, withdrawalID, models.WithdrawalStatusCompleted, (*string)(nil)).
			Return(nil, service.NewError(service.ErrAlreadyProcessed, "Withdrawal already completed"))

		rec, body := s.do(t, http.MethodPut, "/api/withdrawals/"+withdrawalID.String()+"/process", map[string]any{
			"status": "completed",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Withdrawal already completed", body["error"])
	})

	t.Run("get", func(t *testing.T) {
		s := newTestServer(t)
		withdrawalID := uuid.New()
		s.withdrawals.On("Get", mock.Anything, s.user.ID, withdrawalID).
			Return(&models.Withdrawal{ID: withdrawalID, Status: models.WithdrawalStatusPending}, nil)

		rec, body := s.do(t, http.MethodGet, "/api/withdrawals/"+withdrawalID.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pending", body["withdrawal"].(map[string]any)["status"])
	})

	t.Run("cancel", func(t *testing.T) {
		s := newTestServer(t)
		withdrawalID := uuid.New()
		s.withdrawals.On("Cancel", mock.Anything, s.user.ID, withdrawalID).Return(nil)

		rec, body := s.do(t, http.MethodDelete, "/api/withdrawals/"+withdrawalID.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Withdrawal request cancelled successfully", body["message"])
	})

	t.Run("cancel processing", func(t *testing.T) {
		s := newTestServer(t)
		withdrawalID := uuid.New()
		s.withdrawals.On("Cancel", mock.Anything, s.user.ID, withdrawalID).
			Return(service.NewError(service.ErrInvalidStateTransition, "Cannot cancel a withdrawal that is already processing or completed"))

		rec, body := s.do(t, http.MethodDelete, "/api/withdrawals/"+withdrawalID.String(), nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Cannot cancel a withdrawal that is already processing or completed", body["error"])
	})

	t.Run("malformed id", func(t *testing.T) {
		s := newTestServer(t)

		rec, body := s.do(t, http.MethodDelete, "/api/withdrawals/100%25-not-a-uuid", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Withdrawal not found", body["error"])
	})

	t.Run("internal error is hidden", func(t *testing.T) {
		s := newTestServer(t)
		s.withdrawals.On("List", mock.Anything, s.user.ID).Return(nil, errors.New("connection reset by peer"))

		rec, body := s.do(t, http.MethodGet, "/api/withdrawals", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["error"])
	})
}
