package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cryptoledger/events"
	"cryptoledger/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(factory UnitOfWorkFactory, ttl time.Duration) *authService {
	svc := NewAuthService(factory, AuthConfig{
		JWTSecret:  "test-secret",
		TokenTTL:   ttl,
		BcryptCost: bcrypt.MinCost,
	}).(*authService)
	svc.now = fixedClock
	return svc
}

func hashedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Balance:      decimal.Zero,
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockFactory, _, repos := mockUnitOfWork(t, ctx, true)
	svc := newTestAuthService(mockFactory, time.Hour)

	created := &models.User{ID: uuid.New(), Email: "alice@example.com"}

	repos.Users.On("GetByEmail", ctx, "alice@example.com").Return(nil, nil)
	repos.Users.On("Create", ctx, "alice@example.com", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")) == nil
	})).Return(created, nil)

	user, err := svc.Register(ctx, "  Alice@Example.com ", "password123")

	require.NoError(t, err)
	assert.Equal(t, created, user)
	require.Len(t, repos.Events.OfType(events.EventTypeUserRegistered), 1)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
	svc := newTestAuthService(mockFactory, time.Hour)

	repos.Users.On("GetByEmail", ctx, "alice@example.com").Return(&models.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, "alice@example.com", "password123")

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "email already registered")
	repos.Users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, repos.Events.Events)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	svc := newTestAuthService(mockFactory, time.Hour)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "password123"},
		{"short password", "bob@example.com", "short"},
		{"password longer than bcrypt accepts", "bob@example.com", strings.Repeat("p", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	mockFactory.AssertNotCalled(t, "Create")
}

func TestAuthService_LoginAndVerify(t *testing.T) {
	ctx := context.Background()
	mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
	svc := newTestAuthService(mockFactory, time.Hour)

	user := hashedUser(t, "carol@example.com", "correct-horse")
	repos.Users.On("GetByEmail", ctx, "carol@example.com").Return(user, nil)
	repos.Users.On("GetByID", ctx, user.ID).Return(user, nil)

	token, loggedIn, err := svc.Login(ctx, "carol@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user, loggedIn)
	assert.NotEmpty(t, token)

	verified, err := svc.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
		svc := newTestAuthService(mockFactory, time.Hour)

		user := hashedUser(t, "dave@example.com", "right-password")
		repos.Users.On("GetByEmail", ctx, "dave@example.com").Return(user, nil)

		_, _, err := svc.Login(ctx, "dave@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.EqualError(t, err, "Invalid email or password")
	})

	t.Run("unknown email", func(t *testing.T) {
		mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
		svc := newTestAuthService(mockFactory, time.Hour)

		repos.Users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, nil)

		_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAuthService_VerifyToken_Failures(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "erin@example.com"}

	t.Run("missing token", func(t *testing.T) {
		svc := newTestAuthService(new(MockUnitOfWorkFactory), time.Hour)

		_, err := svc.VerifyToken(ctx, "  ")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.EqualError(t, err, "Access token required")
	})

	t.Run("expired token", func(t *testing.T) {
		svc := newTestAuthService(new(MockUnitOfWorkFactory), -time.Minute)
		token, err := svc.issueToken(user)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.EqualError(t, err, "Token expired")
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := NewAuthService(nil, AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour}).(*authService)
		other.now = fixedClock
		token, err := other.issueToken(user)
		require.NoError(t, err)

		svc := newTestAuthService(new(MockUnitOfWorkFactory), time.Hour)
		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.EqualError(t, err, "Invalid token")
	})

	t.Run("unsigned token", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		svc := newTestAuthService(new(MockUnitOfWorkFactory), time.Hour)
		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("garbage", func(t *testing.T) {
		svc := newTestAuthService(new(MockUnitOfWorkFactory), time.Hour)
		_, err := svc.VerifyToken(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("user removed", func(t *testing.T) {
		mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
		svc := newTestAuthService(mockFactory, time.Hour)
		token, err := svc.issueToken(user)
		require.NoError(t, err)

		repos.Users.On("GetByID", ctx, user.ID).Return(nil, nil)

		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.EqualError(t, err, "User not found")
	})
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
		svc := newTestAuthService(mockFactory, time.Hour)

		user := &models.User{ID: uuid.New(), Balance: decimal.NewFromInt(10)}
		repos.Users.On("GetByID", ctx, user.ID).Return(user, nil)

		profile, err := svc.Profile(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, profile.Balance.Equal(decimal.NewFromInt(10)))
	})

	t.Run("repository error", func(t *testing.T) {
		mockFactory, _, repos := mockUnitOfWork(t, ctx, false)
		svc := newTestAuthService(mockFactory, time.Hour)

		id := uuid.New()
		repos.Users.On("GetByID", ctx, id).Return(nil, errors.New("connection reset"))

		_, err := svc.Profile(ctx, id)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
