package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chatrelay/apiserver/config"
)

const defaultTelegramTimeout = 10 * time.Second

// TelegramNotifier posts notifications to the Telegram Bot API
// sendMessage method.
type TelegramNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewTelegramNotifier constructs a Telegram notifier from config.
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("telegram bot token is required")
	}

	timeout := defaultTelegramTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		baseURL: baseURL,
		token:   cfg.BotToken,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Send delivers the notification to the linked chat.
func (t *TelegramNotifier) Send(ctx context.Context, n Notification) error {
	if n.ChatID == 0 {
		return errMissingChatID
	}

	payload := sendMessageRequest{
		ChatID: n.ChatID,
		Text:   fmt.Sprintf("%s, I received your message:\n%s", n.FirstName, n.Text),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no resources to release.
func (t *TelegramNotifier) Close() error {
	return nil
}
