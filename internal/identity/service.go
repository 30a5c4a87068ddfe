package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/wallet_orders/internal/ledger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Accounts opens and reads the wallet account that belongs to a user.
type Accounts interface {
	Open(ctx context.Context, clientID string) (ledger.Account, error)
	Account(ctx context.Context, clientID string) (ledger.Account, error)
}

// Service manages the user lifecycle.
type Service struct {
	repo     Repository
	accounts Accounts
	logger   *slog.Logger
}

// NewService creates a new identity service.
func NewService(repo Repository, accounts Accounts, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, accounts: accounts, logger: logger}
}

// Create stores a new user and opens an empty wallet account for it. A
// missing client id, name or email is generated from the client id.
func (s *Service) Create(ctx context.Context, in NewUser) (User, error) {
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		clientID = "client_" + uuid.NewString()
	}
	name := in.Name
	if name == "" {
		name = "User " + clientID
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		email = strings.ToLower(clientID) + "@example.com"
	}

	var hash []byte
	if in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return User{}, ErrPasswordTooShort
		}
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hash = h
	}

	if _, err := s.repo.FindByClientID(ctx, clientID); err == nil {
		return User{}, ErrClientIDTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	if _, err := s.accounts.Open(ctx, clientID); err != nil {
		return User{}, fmt.Errorf("open wallet account: %w", err)
	}
	s.logger.Info("user created", "client_id", clientID, "is_admin", user.IsAdmin)
	return user, nil
}

// Authenticate verifies an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if len(user.PasswordHash) == 0 {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user with the given client id.
func (s *Service) Get(ctx context.Context, clientID string) (User, error) {
	return s.repo.FindByClientID(ctx, clientID)
}

// List returns a page of users, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Update changes a user's name or email.
func (s *Service) Update(ctx context.Context, clientID string, changes Changes) (User, error) {
	if changes.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*changes.Email))
		changes.Email = &email
	}
	return s.repo.Update(ctx, clientID, changes)
}

// Delete removes a user. The wallet account and its ledger entries stay for
// audit.
func (s *Service) Delete(ctx context.Context, clientID string) error {
	if err := s.repo.Delete(ctx, clientID); err != nil {
		return err
	}
	s.logger.Info("user deleted", "client_id", clientID)
	return nil
}

// Wallet returns the user's account, or nil when none has been opened.
func (s *Service) Wallet(ctx context.Context, clientID string) (*ledger.Account, error) {
	acc, err := s.accounts.Account(ctx, clientID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
