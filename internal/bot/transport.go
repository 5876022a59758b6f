// Package bot contains the chat transport, session tracking, and the
// conversation engine driving the campaign pipeline.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	telegold "github.com/leonid-shevtsov/telegold"
	"github.com/yuin/goldmark"
)

// Update is one inbound event from the chat platform.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound or referenced chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat identifies the conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message,omitempty"`
}

// InlineKeyboardButton is one inline button.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboardMarkup attaches inline buttons to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// KeyboardButton is one reply-keyboard button.
type KeyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboardMarkup replaces the user's keyboard with persistent buttons.
type ReplyKeyboardMarkup struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

// Transport is the Bot API client. Uses HTML parse mode via a Markdown
// converter, falling back to plain text when the platform rejects the markup.
type Transport struct {
	apiBase    string
	token      string
	httpClient *http.Client
	converter  goldmark.Markdown
}

// NewTransport creates a Bot API client. apiBase is normally
// "https://api.telegram.org" and overridable for tests.
func NewTransport(apiBase, token string) *Transport {
	return &Transport{
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		converter:  goldmark.New(goldmark.WithRenderer(telegold.NewRenderer())),
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// convertToHTML converts standard Markdown to the platform's HTML dialect.
func (t *Transport) convertToHTML(text string) string {
	var buf bytes.Buffer
	if err := t.converter.Convert([]byte(text), &buf); err != nil {
		log.Printf("⚠️ [BOT] Markdown conversion failed: %v", err)
		return text
	}
	return strings.TrimSpace(buf.String())
}

// SendMessage sends text with optional keyboard and returns the new message
// ID. HTML first, plain text retry when the markup is rejected.
func (t *Transport) SendMessage(ctx context.Context, chatID int64, text string, keyboard interface{}) (int64, error) {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       t.convertToHTML(text),
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	result, err := t.call(ctx, "sendMessage", payload)
	if err != nil && strings.Contains(err.Error(), "can't parse entities") {
		log.Printf("⚠️ [BOT] HTML parsing failed, retrying as plain text")
		payload["text"] = text
		delete(payload, "parse_mode")
		result, err = t.call(ctx, "sendMessage", payload)
	}
	if err != nil {
		return 0, err
	}

	var sent Message
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, fmt.Errorf("failed to parse sent message: %w", err)
	}
	return sent.MessageID, nil
}

// EditMessageText rewrites a previously sent message. The platform's
// "message is not modified" complaint is swallowed.
func (t *Transport) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       t.convertToHTML(text),
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	_, err := t.call(ctx, "editMessageText", payload)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// EditMessageReplyMarkup swaps the inline keyboard on an existing message.
func (t *Transport) EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, keyboard *InlineKeyboardMarkup) error {
	payload := map[string]interface{}{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": keyboard,
	}

	_, err := t.call(ctx, "editMessageReplyMarkup", payload)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// DeleteMessage removes a message. Best effort, callers usually ignore the
// error.
func (t *Transport) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	_, err := t.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// AnswerCallbackQuery acknowledges a button press. text, when non-empty, is
// shown to the user as an alert.
func (t *Transport) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	payload := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
		payload["show_alert"] = true
	}
	_, err := t.call(ctx, "answerCallbackQuery", payload)
	return err
}

// SendDocument uploads a local file with a caption.
func (t *Transport) SendDocument(ctx context.Context, chatID int64, filePath, caption string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("failed to write field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", t.convertToHTML(caption)); err != nil {
			return fmt.Errorf("failed to write field: %w", err)
		}
		if err := writer.WriteField("parse_mode", "HTML"); err != nil {
			return fmt.Errorf("failed to write field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("document", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("bot API error (code %d): %s", parsed.ErrorCode, parsed.Description)
	}
	return nil
}

func (t *Transport) call(ctx context.Context, method string, payload map[string]interface{}) (json.RawMessage, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, method)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("bot API error (code %d): %s", parsed.ErrorCode, parsed.Description)
	}
	return parsed.Result, nil
}
