package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/apiserver/internal/logging"
	"github.com/chatrelay/apiserver/internal/store"
	"github.com/chatrelay/apiserver/types"
)

func quietLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func linkedOwner() types.User {
	chatID := int64(777)
	return types.User{ID: 1, Login: "alice", FirstName: "Alice", TelegramID: &chatID}
}

func TestPostNotifiesLinkedOwner(t *testing.T) {
	notifier := newFakeNotifier()
	service := NewMessageService(newFakeMessageRepo(), notifier, quietLogger())

	message, err := service.Post(context.Background(), linkedOwner(), "hello")
	require.NoError(t, err)
	assert.NotZero(t, message.ID)
	assert.Equal(t, "hello", message.Text)

	select {
	case n := <-notifier.sent:
		assert.Equal(t, int64(777), n.ChatID)
		assert.Equal(t, "hello", n.Text)
		assert.Equal(t, "Alice", n.FirstName)
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a notification to be sent")
	}
}

func TestPostSkipsNotifyWhenUnlinked(t *testing.T) {
	notifier := newFakeNotifier()
	service := NewMessageService(newFakeMessageRepo(), notifier, quietLogger())

	owner := types.User{ID: 2, Login: "bob", FirstName: "Bob"}
	_, err := service.Post(context.Background(), owner, "hello")
	require.NoError(t, err)

	select {
	case <-notifier.sent:
		t.Fatalf("unexpected notification for unlinked owner")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPostSwallowsNotifierFailure(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.err = assert.AnError
	service := NewMessageService(newFakeMessageRepo(), notifier, quietLogger())

	message, err := service.Post(context.Background(), linkedOwner(), "hello")
	require.NoError(t, err)
	assert.NotZero(t, message.ID)

	select {
	case <-notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the notifier to be invoked")
	}
}

func TestDeleteOwnership(t *testing.T) {
	repo := newFakeMessageRepo()
	service := NewMessageService(repo, newFakeNotifier(), quietLogger())
	ctx := context.Background()

	owner := linkedOwner()
	message, err := service.Post(ctx, owner, "hello")
	require.NoError(t, err)

	other := types.User{ID: 99, Login: "mallory"}
	err = service.Delete(ctx, other, message.ID)
	require.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, service.Delete(ctx, owner, message.ID))

	// Already soft-deleted rows read as not found.
	err = service.Delete(ctx, owner, message.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteByStaff(t *testing.T) {
	service := NewMessageService(newFakeMessageRepo(), newFakeNotifier(), quietLogger())
	ctx := context.Background()

	message, err := service.Post(ctx, linkedOwner(), "hello")
	require.NoError(t, err)

	staff := types.User{ID: 50, Login: "mod", IsStaff: true}
	require.NoError(t, service.Delete(ctx, staff, message.ID))
}

func TestRecoverMessageIsIdempotent(t *testing.T) {
	service := NewMessageService(newFakeMessageRepo(), newFakeNotifier(), quietLogger())
	ctx := context.Background()

	owner := linkedOwner()
	message, err := service.Post(ctx, owner, "hello")
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, owner, message.ID))

	require.NoError(t, service.Recover(ctx, message.ID))
	require.NoError(t, service.Recover(ctx, message.ID))

	messages, err := service.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].IsDeleted())
}

func TestListForOwnerFiltersDeleted(t *testing.T) {
	service := NewMessageService(newFakeMessageRepo(), newFakeNotifier(), quietLogger())
	ctx := context.Background()

	owner := linkedOwner()
	first, err := service.Post(ctx, owner, "first")
	require.NoError(t, err)
	_, err = service.Post(ctx, owner, "second")
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, owner, first.ID))

	messages, err := service.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "second", messages[0].Text)
}
