package services

import (
	"context"
	"errors"

	"github.com/chatrelay/apiserver/internal/auth"
	"github.com/chatrelay/apiserver/internal/store"
	"github.com/chatrelay/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByLogin(ctx context.Context, login string) (types.User, error)
	ListActive(ctx context.Context) ([]types.User, error)
	ListDeleted(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetTelegramID(ctx context.Context, id int, telegramID int64) error
	SoftDelete(ctx context.Context, id int) error
	Recover(ctx context.Context, id int) error
}

// UserService encapsulates account lifecycle use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByLogin(ctx context.Context, login string) (types.User, error) {
	return s.repo.GetByLogin(ctx, login)
}

func (s *UserService) ListActive(ctx context.Context) ([]types.User, error) {
	return s.repo.ListActive(ctx)
}

func (s *UserService) ListDeleted(ctx context.Context) ([]types.User, error) {
	return s.repo.ListDeleted(ctx)
}

// Register hashes the password and persists a new account. is_staff
// mirrors is_superuser. Duplicate logins surface as store.ErrConflict.
func (s *UserService) Register(ctx context.Context, login, firstName, password string, isSuperuser bool) (types.User, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Login:        login,
		FirstName:    firstName,
		PasswordHash: hashed,
		IsActive:     true,
		IsStaff:      isSuperuser,
		IsSuperuser:  isSuperuser,
	})
}

// Authenticate resolves the account and checks the password. The three
// failure states are kept distinct: unknown login, wrong password, and
// soft-deleted account.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (types.User, error) {
	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrAccountNotFound
		}
		return types.User{}, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return types.User{}, ErrInvalidCredentials
	}
	if user.IsDeleted() {
		return types.User{}, ErrAccountDeleted
	}
	return user, nil
}

// LinkTelegram sets the write-once chat identity. A second link
// attempt surfaces store.ErrConflict and leaves the first value
// intact.
func (s *UserService) LinkTelegram(ctx context.Context, id int, telegramID int64) error {
	return s.repo.SetTelegramID(ctx, id, telegramID)
}

// Recover clears the account's soft-delete mark. Idempotent.
func (s *UserService) Recover(ctx context.Context, id int) error {
	return s.repo.Recover(ctx, id)
}

// Delete soft-deletes the account. The row and its unique login are
// retained.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.SoftDelete(ctx, id)
}
