// Package notify delivers listing alerts over the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gvsturm-ai/rental-hunter/models"
)

const defaultAPIBase = "https://api.telegram.org"

// ErrDelivery marks a transport or API failure for one alert.
var ErrDelivery = errors.New("delivery failed")

// Telegram sends alerts to one or more chats. Failure to reach one
// chat does not stop delivery to the others.
type Telegram struct {
	client  *http.Client
	apiBase string
	token   string
	chatIDs []string
}

func NewTelegram(token string, chatIDs []string, client *http.Client) *Telegram {
	return &Telegram{
		client:  client,
		apiBase: defaultAPIBase,
		token:   token,
		chatIDs: chatIDs,
	}
}

// SetAPIBase overrides the Telegram endpoint, for tests.
func (t *Telegram) SetAPIBase(base string) {
	t.apiBase = base
}

// Send delivers the listing alert to every configured chat, preferring
// a photo with caption and falling back to text when the photo send
// fails or no photo exists.
func (t *Telegram) Send(ctx context.Context, l *models.Listing) error {
	text := l.FormatAlert()

	var errs []error
	for _, chatID := range t.chatIDs {
		if l.PhotoURL != "" {
			if err := t.sendPhoto(ctx, chatID, l.PhotoURL, text); err == nil {
				continue
			} else {
				log.Printf("Photo send failed for %s, falling back to text: %v", l.Address, err)
			}
		}
		if err := t.sendMessage(ctx, chatID, text, false); err != nil {
			errs = append(errs, fmt.Errorf("chat %s: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// SendTest verifies the bot token and chat IDs end to end.
func (t *Telegram) SendTest(ctx context.Context) error {
	text := "*Rental Hunter Test*\n\n" +
		"If you see this message, Telegram notifications are working correctly!\n\n" +
		"You will be notified when new rental listings match your criteria."

	var errs []error
	for _, chatID := range t.chatIDs {
		if err := t.sendMessage(ctx, chatID, text, true); err != nil {
			errs = append(errs, fmt.Errorf("chat %s: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Telegram) sendMessage(ctx context.Context, chatID, text string, disablePreview bool) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": disablePreview,
	}
	return t.call(ctx, "sendMessage", payload)
}

func (t *Telegram) sendPhoto(ctx context.Context, chatID, photoURL, caption string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "Markdown",
	}
	return t.call(ctx, "sendPhoto", payload)
}

func (t *Telegram) call(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrDelivery, method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDelivery, method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDelivery, method, err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrDelivery, method, err)
	}
	if !result.OK {
		return fmt.Errorf("%w: %s: api error: %s", ErrDelivery, method, result.Description)
	}
	return nil
}
