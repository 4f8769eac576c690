package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillstack/userd/internal/shared"
)

// Notifier dispatches the activation email. Transport and retry behavior
// belong to the implementation.
type Notifier interface {
	SendActivationEmail(ctx context.Context, email, token string) error
}

// RegisterInput carries the validated fields of a registration request.
type RegisterInput struct {
	Email     string
	Password  string
	Username  string
	Role      string
	FirstName string
	LastName  string
	Bio       string
}

// ServiceConfig collects the collaborators of the credential lifecycle.
type ServiceConfig struct {
	Hasher        *Hasher
	Tokens        *TokenGenerator
	Issuer        *TokenIssuer
	Notifier      Notifier
	Logger        *slog.Logger
	ActivationTTL time.Duration
}

// Service orchestrates registration, activation and login.
type Service struct {
	repo          Repository
	hasher        *Hasher
	tokens        *TokenGenerator
	issuer        *TokenIssuer
	notifier      Notifier
	logger        *slog.Logger
	activationTTL time.Duration
	now           func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.ActivationTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		repo:          repo,
		hasher:        cfg.Hasher,
		tokens:        cfg.Tokens,
		issuer:        cfg.Issuer,
		notifier:      cfg.Notifier,
		logger:        logger,
		activationTTL: ttl,
		now:           time.Now,
	}
}

// Register creates a pending account and dispatches its activation email.
// The returned user carries the activation token; the caller must project it
// through Public before responding.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := NormalizeEmail(input.Email)

	existing, err := s.repo.FindByEmailOrUsername(ctx, email, input.Username)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.ErrDuplicate
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:                uuid.New(),
		Email:             email,
		Username:          input.Username,
		PasswordHash:      hash,
		Role:              input.Role,
		Active:            false,
		ActivationToken:   token,
		ActivationExpires: s.now().Add(s.activationTTL),
		Profile: Profile{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Bio:       input.Bio,
		},
	}

	persisted, err := s.repo.Insert(ctx, user)
	if err != nil {
		// The pre-check races with concurrent registrations; the store's
		// uniqueness constraint is the authority.
		return nil, err
	}

	if err := s.notifier.SendActivationEmail(ctx, persisted.Email, token); err != nil {
		// The account is persisted but unnotified. No rollback; the record is
		// logged for manual recovery.
		s.logger.Error("activation email dispatch failed for persisted user",
			slog.String("email", persisted.Email),
			slog.String("user_id", persisted.ID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", shared.ErrEmailDelivery, err)
	}

	return persisted, nil
}

// Activate consumes an activation token and returns a session token for the
// now-active account. Unknown, expired and already-used tokens are rejected
// identically.
func (s *Service) Activate(ctx context.Context, activationToken string) (string, error) {
	user, err := s.repo.FindAndActivateByToken(ctx, activationToken, s.now())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrTokenInvalidOrExpired
		}
		return "", err
	}
	return s.issuer.Issue(user)
}

// Login verifies credentials and returns a session token. The activation
// state is not checked here: a pending account can still authenticate.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", shared.ErrInvalidCredentials
	}
	return s.issuer.Issue(user)
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
