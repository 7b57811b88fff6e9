package services

import (
	"context"
	"sync"
	"time"

	"github.com/chatrelay/apiserver/internal/notify"
	"github.com/chatrelay/apiserver/internal/store"
	"github.com/chatrelay/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository mirroring the store's
// soft-delete and write-once semantics.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByLogin(_ context.Context, login string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Login == login {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) ListActive(_ context.Context) ([]types.User, error) {
	return f.list(false), nil
}

func (f *fakeUserRepo) ListDeleted(_ context.Context) ([]types.User, error) {
	return f.list(true), nil
}

func (f *fakeUserRepo) list(deleted bool) []types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []types.User
	for _, user := range f.users {
		if user.IsDeleted() == deleted {
			users = append(users, user)
		}
	}
	return users
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Uniqueness holds across deleted rows too.
	for _, existing := range f.users {
		if existing.Login == user.Login {
			return types.User{}, store.ErrConflict
		}
	}
	f.nextID++
	user.ID = f.nextID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) SetTelegramID(_ context.Context, id int, telegramID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if user.TelegramID != nil {
		return store.ErrConflict
	}
	for _, existing := range f.users {
		if existing.TelegramID != nil && *existing.TelegramID == telegramID {
			return store.ErrConflict
		}
	}
	user.TelegramID = &telegramID
	user.UpdatedAt = time.Now()
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.IsDeleted() {
		return store.ErrNotFound
	}
	now := time.Now()
	user.DeletedAt = &now
	user.UpdatedAt = now
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) Recover(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil
	}
	user.DeletedAt = nil
	user.UpdatedAt = time.Now()
	f.users[id] = user
	return nil
}

// fakeMessageRepo is an in-memory MessageRepository.
type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int
	messages map[int]types.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[int]types.Message)}
}

func (f *fakeMessageRepo) Create(_ context.Context, message types.Message) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	message.ID = f.nextID
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now
	f.messages[message.ID] = message
	return message, nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id int) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	message, ok := f.messages[id]
	if !ok {
		return types.Message{}, store.ErrNotFound
	}
	return message, nil
}

func (f *fakeMessageRepo) ListActiveByOwner(_ context.Context, ownerID int) ([]types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var messages []types.Message
	for _, message := range f.messages {
		if message.OwnerID == ownerID && !message.IsDeleted() {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (f *fakeMessageRepo) SoftDelete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	message, ok := f.messages[id]
	if !ok || message.IsDeleted() {
		return store.ErrNotFound
	}
	now := time.Now()
	message.DeletedAt = &now
	message.UpdatedAt = now
	f.messages[id] = message
	return nil
}

func (f *fakeMessageRepo) Recover(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	message, ok := f.messages[id]
	if !ok {
		return nil
	}
	message.DeletedAt = nil
	message.UpdatedAt = time.Now()
	f.messages[id] = message
	return nil
}

// fakeNotifier records sent notifications on a channel so tests can
// wait for the asynchronous relay.
type fakeNotifier struct {
	sent chan notify.Notification
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan notify.Notification, 8)}
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) error {
	f.sent <- n
	return f.err
}

func (f *fakeNotifier) Close() error { return nil }
