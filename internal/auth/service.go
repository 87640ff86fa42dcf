// Package auth registers and authenticates accounts against a users.Store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"houseprice/internal/models"
	"houseprice/internal/users"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

// Errors carry the message shown to the user.
var (
	ErrFieldsRequired     = errors.New("All fields are required.")
	ErrPasswordTooShort   = fmt.Errorf("Password must be at least %d characters.", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("Password must be at most %d bytes.", MaxPasswordBytes)
	ErrPasswordMismatch   = errors.New("Passwords do not match.")
	ErrEmailTaken         = errors.New("Email already registered. Please login.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
)

// Registration is the sign-up form.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type Service struct {
	store users.Store
	cost  int
	now   func() time.Time
}

func NewService(store users.Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the form and creates the account.
func (s *Service) Register(ctx context.Context, r Registration) (models.User, error) {
	name := strings.TrimSpace(r.Name)
	email := NormalizeEmail(r.Email)

	switch {
	case name == "" || email == "" || r.Password == "":
		return models.User{}, ErrFieldsRequired
	case len(r.Password) < MinPasswordLength:
		return models.User{}, ErrPasswordTooShort
	case len(r.Password) > MaxPasswordBytes:
		return models.User{}, ErrPasswordTooLong
	case r.Password != r.ConfirmPassword:
		return models.User{}, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks the password for email. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.store.Get(ctx, NormalizeEmail(email))
	if errors.Is(err, users.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Count reports the number of registered accounts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
