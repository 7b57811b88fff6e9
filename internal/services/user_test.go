package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/apiserver/internal/auth"
	"github.com/chatrelay/apiserver/internal/store"
)

func TestRegisterHashesPasswordAndMirrorsStaff(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	user, err := service.Register(ctx, "alice", "Alice", "pw123", false)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
	assert.NotEqual(t, "pw123", user.PasswordHash)
	assert.True(t, auth.VerifyPassword("pw123", user.PasswordHash))

	super, err := service.Register(ctx, "root", "Root", "pw123", true)
	require.NoError(t, err)
	assert.True(t, super.IsStaff)
	assert.True(t, super.IsSuperuser)
}

func TestRegisterDuplicateLogin(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	_, err := service.Register(ctx, "alice", "Alice", "pw123", false)
	require.NoError(t, err)

	_, err = service.Register(ctx, "alice", "Another", "pw456", false)
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestAuthenticateDistinguishesFailures(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewUserService(repo)
	ctx := context.Background()

	user, err := service.Register(ctx, "alice", "Alice", "pw123", false)
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, "ghost", "x")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = service.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := service.Authenticate(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, service.Delete(ctx, user.ID))
	_, err = service.Authenticate(ctx, "alice", "pw123")
	assert.ErrorIs(t, err, ErrAccountDeleted)
}

func TestLinkTelegramIsWriteOnce(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	user, err := service.Register(ctx, "alice", "Alice", "pw123", false)
	require.NoError(t, err)

	require.NoError(t, service.LinkTelegram(ctx, user.ID, 111))

	err = service.LinkTelegram(ctx, user.ID, 222)
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := service.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TelegramID)
	assert.Equal(t, int64(111), *got.TelegramID)
}

func TestRecoverIsIdempotent(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	user, err := service.Register(ctx, "alice", "Alice", "pw123", false)
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, user.ID))

	require.NoError(t, service.Recover(ctx, user.ID))
	require.NoError(t, service.Recover(ctx, user.ID))

	got, err := service.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted())
}

func TestDeleteKeepsLoginReserved(t *testing.T) {
	service := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	user, err := service.Register(ctx, "alice", "Alice", "pw123", false)
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, user.ID))

	_, err = service.Register(ctx, "alice", "Impostor", "pw456", false)
	require.ErrorIs(t, err, store.ErrConflict)

	deleted, err := service.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, user.ID, deleted[0].ID)

	active, err := service.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
