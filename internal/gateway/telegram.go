package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rrock-k/interval-learn-bot/internal/config"
)

// defaultAPIBaseURL is the public Telegram Bot API endpoint.
const defaultAPIBaseURL = "https://api.telegram.org"

// Telegram delivers messages via the Telegram Bot API.
type Telegram struct {
	token   string
	baseURL string
	client  *http.Client
}

var _ Gateway = (*Telegram)(nil)

// NewTelegram builds a gateway from the bot configuration.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	return &Telegram{
		token:   cfg.BotToken,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// messageResult is the subset of a Message the gateway needs back.
type messageResult struct {
	MessageID int `json:"message_id"`
}

// inlineKeyboard is the reply_markup payload for grading buttons.
type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// markupFor lays the buttons out as a single row.
func markupFor(buttons []Button) *inlineKeyboard {
	if len(buttons) == 0 {
		return nil
	}

	row := make([]inlineButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, inlineButton{Text: b.Text, CallbackData: b.Data})
	}

	return &inlineKeyboard{InlineKeyboard: [][]inlineButton{row}}
}

// CopyContent implements Gateway.CopyContent via copyMessage, one call per
// source message id, keeping the original order and attaching the buttons to
// the last copy.
func (t *Telegram) CopyContent(
	ctx context.Context,
	target Target,
	source SourceRef,
	buttons []Button,
) ([]int, error) {
	if len(source.MessageIDs) == 0 {
		return nil, fmt.Errorf("source has no message ids")
	}

	newIDs := make([]int, 0, len(source.MessageIDs))
	for i, messageID := range source.MessageIDs {
		payload := map[string]any{
			"chat_id":      target.ChatID,
			"from_chat_id": source.ChatID,
			"message_id":   messageID,
		}
		if i == len(source.MessageIDs)-1 {
			if markup := markupFor(buttons); markup != nil {
				payload["reply_markup"] = markup
			}
		}

		var result messageResult
		if err := t.call(ctx, "copyMessage", payload, &result); err != nil {
			return nil, fmt.Errorf("copyMessage %d/%d: %w", i+1, len(source.MessageIDs), err)
		}
		newIDs = append(newIDs, result.MessageID)
	}

	return newIDs, nil
}

// SendText implements Gateway.SendText via sendMessage.
func (t *Telegram) SendText(
	ctx context.Context,
	target Target,
	text string,
	replyTo *int,
	buttons []Button,
) (int, error) {
	payload := map[string]any{
		"chat_id": target.ChatID,
		"text":    text,
	}
	if replyTo != nil {
		payload["reply_to_message_id"] = *replyTo
	}
	if markup := markupFor(buttons); markup != nil {
		payload["reply_markup"] = markup
	}

	var result messageResult
	if err := t.call(ctx, "sendMessage", payload, &result); err != nil {
		return 0, err
	}

	return result.MessageID, nil
}

// ClearControls implements Gateway.ClearControls by replacing the message's
// reply markup with an empty keyboard.
func (t *Telegram) ClearControls(ctx context.Context, chatID int64, messageID int) error {
	payload := map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": inlineKeyboard{InlineKeyboard: [][]inlineButton{}},
	}

	return t.call(ctx, "editMessageReplyMarkup", payload, nil)
}

// DeleteMessage implements Gateway.DeleteMessage.
func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}

	return t.call(ctx, "deleteMessage", payload, nil)
}

// call posts one Bot API method and decodes the envelope, mapping API-level
// failures onto the gateway's typed errors.
func (t *Telegram) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if !apiResp.OK {
		return mapAPIError(apiResp.ErrorCode, apiResp.Description)
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", method, err)
		}
	}

	return nil
}

// mapAPIError translates a Bot API error into the gateway's typed errors.
// The Bot API signals conditions through the description text, so matching
// on it is confined to this one spot; everything above works with the typed
// errors only.
func mapAPIError(code int, description string) error {
	desc := strings.ToLower(description)

	switch {
	case strings.Contains(desc, "repl") && strings.Contains(desc, "not found"):
		// "message to be replied not found" / "replied message not found"
		return fmt.Errorf("%w: %s", ErrReplyTargetMissing, description)
	case strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message to copy not found"):
		return fmt.Errorf("%w: %s", ErrMessageNotFound, description)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, description)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, description)
	default:
		return fmt.Errorf("telegram api error %d: %s", code, description)
	}
}
