package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrock-k/interval-learn-bot/internal/config"
)

// recordedCall captures one Bot API request for assertions.
type recordedCall struct {
	Method  string
	Payload map[string]any
}

// newBotAPIServer fakes the Bot API: respond decides the envelope per call,
// and every request is recorded.
func newBotAPIServer(
	t *testing.T,
	respond func(method string, payload map[string]any) (any, *apiResponse),
) (*Telegram, *[]recordedCall) {
	t.Helper()

	var calls []recordedCall

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		calls = append(calls, recordedCall{Method: method, Payload: payload})

		result, errResp := respond(method, payload)
		if errResp != nil {
			require.NoError(t, json.NewEncoder(w).Encode(errResp))
			return
		}

		raw, err := json.Marshal(result)
		require.NoError(t, err)
		require.NoError(t, json.NewEncoder(w).Encode(apiResponse{OK: true, Result: raw}))
	}))
	t.Cleanup(server.Close)

	gw := NewTelegram(config.TelegramConfig{
		BotToken:   "12345:test-token",
		APIBaseURL: server.URL,
	})
	return gw, &calls
}

func TestTelegramCopyContent(t *testing.T) {
	t.Parallel()

	nextID := 500
	gw, calls := newBotAPIServer(t, func(method string, _ map[string]any) (any, *apiResponse) {
		require.Equal(t, "copyMessage", method)
		nextID++
		return messageResult{MessageID: nextID}, nil
	})

	ids, err := gw.CopyContent(context.Background(),
		Target{ChatID: 42},
		SourceRef{ChatID: 42, MessageIDs: []int{100, 101, 102}},
		[]Button{{Text: "Again", Data: "grade:x:again"}, {Text: "Good", Data: "grade:x:good"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{501, 502, 503}, ids)

	require.Len(t, *calls, 3)

	// Original order preserved, buttons only on the last copy.
	for i, call := range *calls {
		assert.Equal(t, float64(100+i), call.Payload["message_id"])
		_, hasMarkup := call.Payload["reply_markup"]
		assert.Equal(t, i == len(*calls)-1, hasMarkup, "call %d markup presence", i)
	}
}

func TestTelegramSendText(t *testing.T) {
	t.Parallel()

	gw, calls := newBotAPIServer(t, func(method string, _ map[string]any) (any, *apiResponse) {
		require.Equal(t, "sendMessage", method)
		return messageResult{MessageID: 777}, nil
	})

	replyTo := 600
	id, err := gw.SendText(context.Background(),
		Target{ChatID: 42}, "time to review", &replyTo,
		[]Button{{Text: "OK", Data: "grade:x:ok"}},
	)
	require.NoError(t, err)
	assert.Equal(t, 777, id)

	require.Len(t, *calls, 1)
	payload := (*calls)[0].Payload
	assert.Equal(t, "time to review", payload["text"])
	assert.Equal(t, float64(600), payload["reply_to_message_id"])
	assert.Contains(t, payload, "reply_markup")
}

func TestTelegramClearControls(t *testing.T) {
	t.Parallel()

	gw, calls := newBotAPIServer(t, func(method string, _ map[string]any) (any, *apiResponse) {
		require.Equal(t, "editMessageReplyMarkup", method)
		return true, nil
	})

	require.NoError(t, gw.ClearControls(context.Background(), 42, 600))

	require.Len(t, *calls, 1)
	payload := (*calls)[0].Payload
	assert.Equal(t, float64(600), payload["message_id"])
	assert.Contains(t, payload, "reply_markup")
}

func TestTelegramErrorMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		code        int
		description string
		want        error
	}{
		{
			name:        "reply target gone",
			code:        400,
			description: "Bad Request: message to be replied not found",
			want:        ErrReplyTargetMissing,
		},
		{
			name:        "edit target gone",
			code:        400,
			description: "Bad Request: message to edit not found",
			want:        ErrMessageNotFound,
		},
		{
			name:        "delete target gone",
			code:        400,
			description: "Bad Request: message to delete not found",
			want:        ErrMessageNotFound,
		},
		{
			name:        "flood control",
			code:        429,
			description: "Too Many Requests: retry after 14",
			want:        ErrRateLimited,
		},
		{
			name:        "bot blocked",
			code:        403,
			description: "Forbidden: bot was blocked by the user",
			want:        ErrForbidden,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gw, _ := newBotAPIServer(t, func(string, map[string]any) (any, *apiResponse) {
				return nil, &apiResponse{OK: false, ErrorCode: tc.code, Description: tc.description}
			})

			replyTo := 1
			_, err := gw.SendText(context.Background(), Target{ChatID: 42}, "x", &replyTo, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTelegramUnknownErrorIsUntyped(t *testing.T) {
	t.Parallel()

	gw, _ := newBotAPIServer(t, func(string, map[string]any) (any, *apiResponse) {
		return nil, &apiResponse{OK: false, ErrorCode: 400, Description: "Bad Request: chat not found"}
	})

	err := gw.DeleteMessage(context.Background(), 42, 600)
	require.Error(t, err)
	for _, typed := range []error{ErrReplyTargetMissing, ErrMessageNotFound, ErrRateLimited, ErrForbidden} {
		if errors.Is(err, typed) {
			t.Errorf("unexpected typed error %v for %v", typed, err)
		}
	}
}

func TestTelegramCopyContentStopsOnFailure(t *testing.T) {
	t.Parallel()

	callCount := 0
	gw, _ := newBotAPIServer(t, func(string, map[string]any) (any, *apiResponse) {
		callCount++
		if callCount == 2 {
			return nil, &apiResponse{OK: false, ErrorCode: 400, Description: "Bad Request: message to copy not found"}
		}
		return messageResult{MessageID: callCount}, nil
	})

	_, err := gw.CopyContent(context.Background(),
		Target{ChatID: 42},
		SourceRef{ChatID: 42, MessageIDs: []int{100, 101, 102}},
		nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.Equal(t, 2, callCount, fmt.Sprintf("copy should stop at the failing message, made %d calls", callCount))
}
