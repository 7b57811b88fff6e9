package services

import (
	"context"
	"time"

	"github.com/chatrelay/apiserver/internal/logging"
	"github.com/chatrelay/apiserver/internal/notify"
	"github.com/chatrelay/apiserver/types"
)

const defaultNotifyTimeout = 10 * time.Second

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message types.Message) (types.Message, error)
	GetByID(ctx context.Context, id int) (types.Message, error)
	ListActiveByOwner(ctx context.Context, ownerID int) ([]types.Message, error)
	SoftDelete(ctx context.Context, id int) error
	Recover(ctx context.Context, id int) error
}

// MessageService encapsulates message use-cases and the post-persist
// chat notification.
type MessageService struct {
	repo          MessageRepository
	notifier      notify.Notifier
	log           logging.Logger
	notifyTimeout time.Duration
}

func NewMessageService(repo MessageRepository, notifier notify.Notifier, log logging.Logger) *MessageService {
	return &MessageService{
		repo:          repo,
		notifier:      notifier,
		log:           log,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Post persists the message and relays it to the owner's linked chat.
// The relay runs after the write completes, on its own goroutine with
// a detached context; a delivery failure is logged and swallowed, it
// never fails the originating request.
func (s *MessageService) Post(ctx context.Context, owner types.User, text string) (types.Message, error) {
	message, err := s.repo.Create(ctx, types.Message{
		Text:    text,
		OwnerID: owner.ID,
	})
	if err != nil {
		return types.Message{}, err
	}

	if owner.HasTelegram() {
		go s.sendNotification(notify.Notification{
			ChatID:    *owner.TelegramID,
			Text:      message.Text,
			FirstName: owner.FirstName,
		})
	}

	return message, nil
}

func (s *MessageService) sendNotification(n notify.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, n); err != nil {
		s.log.Warn(ctx, "chat notification failed", "chat_id", n.ChatID, "error", err)
	}
}

// ListForOwner returns the owner's non-deleted messages.
func (s *MessageService) ListForOwner(ctx context.Context, ownerID int) ([]types.Message, error) {
	return s.repo.ListActiveByOwner(ctx, ownerID)
}

// Delete soft-deletes a message. Only the owner or a staff member may
// delete it; a message that is already soft-deleted reads as not
// found.
func (s *MessageService) Delete(ctx context.Context, requester types.User, id int) error {
	message, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if message.OwnerID != requester.ID && !requester.IsStaff {
		return ErrNotOwner
	}
	return s.repo.SoftDelete(ctx, id)
}

// Recover clears a message's soft-delete mark. Idempotent.
func (s *MessageService) Recover(ctx context.Context, id int) error {
	return s.repo.Recover(ctx, id)
}
