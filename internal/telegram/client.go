// Package telegram is a minimal Bot API transport: long polling in, text
// and reply keyboards out.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// messageLimit is Telegram's max message length, with headroom for the
// API's own framing.
const messageLimit = 3900

// Client is a minimal Telegram Bot API client.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base (e.g.
// "https://api.telegram.org") and bot token. pollTimeout is the getUpdates
// long-poll window in seconds; the HTTP timeout leaves room above it.
func NewClient(apiBase, token string, pollTimeout int) *Client {
	return &Client{
		apiBase: apiBase + "/bot" + token,
		httpClient: &http.Client{
			Timeout: time.Duration(pollTimeout+10) * time.Second,
		},
	}
}

// User identifies the sender of a message.
type User struct {
	ID int64 `json:"id"`
}

// Chat identifies the Telegram chat a message arrived in.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is one inbound Telegram message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	Date      int64  `json:"date"`
}

// Update is one getUpdates entry.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

// GetUpdates long-polls the getUpdates API.
func (c *Client) GetUpdates(offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeout))

	resp, err := c.httpClient.Get(c.apiBase + "/getUpdates?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getUpdates response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates response: %w", err)
	}
	if !parsed.OK {
		return nil, nil
	}

	var updates []Update
	if err := json.Unmarshal(parsed.Result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates result: %w", err)
	}
	return updates, nil
}

// KeyboardButton is one reply-keyboard button.
type KeyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboard renders persistent buttons under the input field.
type ReplyKeyboard struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

type sendMessagePayload struct {
	ChatID      int64          `json:"chat_id"`
	Text        string         `json:"text"`
	ReplyMarkup *ReplyKeyboard `json:"reply_markup,omitempty"`
}

// SendMessage delivers text to the chat, optionally attaching a reply
// keyboard. Text beyond Telegram's limit is truncated.
func (c *Client) SendMessage(chatID int64, text string, markup *ReplyKeyboard) error {
	payload, err := json.Marshal(sendMessagePayload{
		ChatID:      chatID,
		Text:        truncate(text, messageLimit),
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	resp, err := c.httpClient.Post(c.apiBase+"/sendMessage", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// SendTyping shows the "typing…" indicator while a completion is pending.
func (c *Client) SendTyping(chatID int64) error {
	payload := fmt.Sprintf(`{"chat_id":%d,"action":"typing"}`, chatID)
	resp, err := c.httpClient.Post(c.apiBase+"/sendChatAction", "application/json", bytes.NewReader([]byte(payload)))
	if err != nil {
		return fmt.Errorf("telegram sendChatAction request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
