package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptoledger/events"
	"cryptoledger/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds token and hashing settings
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// tokenClaims is the JWT payload issued at login
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// authService implements the AuthService interface
type authService struct {
	uowFactory UnitOfWorkFactory
	secret     []byte
	ttl        time.Duration
	cost       int
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(uowFactory UnitOfWorkFactory, cfg AuthConfig) AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &authService{
		uowFactory: uowFactory,
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		cost:       cost,
		now:        time.Now,
	}
}

// Register creates a new account with zero balances
func (s *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, NewError(ErrValidation, "email already registered")
	}

	// Database unique constraint on email covers concurrent registrations
	user, err := uow.UserRepository().Create(ctx, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues a signed token
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = normalizeEmail(email)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil, NewError(ErrUnauthorized, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, NewError(ErrUnauthorized, "Invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken validates a bearer token and loads the user it belongs to
func (s *authService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewError(ErrUnauthorized, "Access token required")
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, NewError(ErrUnauthorized, "Token expired")
	}
	if err != nil {
		return nil, NewError(ErrForbidden, "Invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, NewError(ErrForbidden, "Invalid token")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The account may have been removed after the token was issued
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewError(ErrUnauthorized, "User not found")
	}

	return user, nil
}

// Profile returns the account with its current balances
func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewError(ErrNotFound, "User not found")
	}
	return user, nil
}
