package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	parseMode      = "Markdown"
	maxErrorBody   = 4 << 10
)

var allowedUpdates = []string{"message", "callback_query"}

// Client вызывает Telegram Bot API
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент Bot API. Таймаут HTTP должен превышать
// таймаут long polling.
func NewClient(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL меняет адрес Bot API
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram %s encode: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var parsed APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("telegram %s decode: %w", method, err)
	}
	if !parsed.OK {
		return nil, &APIError{Method: method, StatusCode: parsed.ErrorCode, Body: parsed.Description}
	}
	return parsed.Result, nil
}

// GetUpdates получает обновления через long polling
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	seconds := int(timeout.Round(time.Second).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	if seconds > 50 {
		seconds = 50
	}

	result, err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        seconds,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("telegram getUpdates decode result: %w", err)
	}
	return updates, nil
}

// SendMessage отправляет сообщение с разметкой Markdown.
// Если Telegram не смог разобрать разметку, сообщение уходит простым текстом.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	return c.send(ctx, SendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode, ReplyMarkup: markup})
}

// SendMessageTo отправляет сообщение в чат по числовому id или @имени канала
func (c *Client) SendMessageTo(ctx context.Context, chat string, text string) error {
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return errors.New("telegram sendMessage: empty chat")
	}
	var chatID any = chat
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		chatID = id
	}
	return c.send(ctx, SendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode})
}

func (c *Client) send(ctx context.Context, req SendMessageRequest) error {
	_, err := c.call(ctx, "sendMessage", req)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && strings.Contains(apiErr.Body, "parse entities") {
		req.ParseMode = ""
		_, err = c.call(ctx, "sendMessage", req)
	}
	return err
}

// AnswerCallbackQuery подтверждает нажатие кнопки
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	_, err := c.call(ctx, "answerCallbackQuery", AnswerCallbackQueryRequest{CallbackQueryID: callbackID, Text: text})
	return err
}

// SetWebhook регистрирует адрес webhook с секретом
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("telegram setWebhook: url is required")
	}
	_, err := c.call(ctx, "setWebhook", setWebhookRequest{URL: url, SecretToken: secretToken, AllowedUpdates: allowedUpdates})
	return err
}

// DeleteWebhook отключает webhook перед long polling
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	_, err := c.call(ctx, "deleteWebhook", deleteWebhookRequest{DropPendingUpdates: dropPending})
	return err
}
