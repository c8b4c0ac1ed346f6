package mocks

import (
	"context"
	"sync"

	"github.com/Rrock-k/interval-learn-bot/internal/gateway"
)

// CopyContentCall records one CopyContent invocation.
type CopyContentCall struct {
	Target  gateway.Target
	Source  gateway.SourceRef
	Buttons []gateway.Button
}

// SendTextCall records one SendText invocation.
type SendTextCall struct {
	Target  gateway.Target
	Text    string
	ReplyTo *int
	Buttons []gateway.Button
}

// MessageRef records one ClearControls or DeleteMessage invocation.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// MockGateway implements gateway.Gateway for testing. Fn hooks, when set,
// replace the default behavior; defaults hand out sequential message ids.
type MockGateway struct {
	mu     sync.Mutex
	nextID int

	CopyContentFn   func(ctx context.Context, target gateway.Target, source gateway.SourceRef, buttons []gateway.Button) ([]int, error)
	SendTextFn      func(ctx context.Context, target gateway.Target, text string, replyTo *int, buttons []gateway.Button) (int, error)
	ClearControlsFn func(ctx context.Context, chatID int64, messageID int) error
	DeleteMessageFn func(ctx context.Context, chatID int64, messageID int) error

	CopyContentCalls   []CopyContentCall
	SendTextCalls      []SendTextCall
	ClearControlsCalls []MessageRef
	DeleteMessageCalls []MessageRef
}

// Verify interface compliance at compile time
var _ gateway.Gateway = (*MockGateway)(nil)

// NewMockGateway creates a MockGateway whose default message ids start at 100.
func NewMockGateway() *MockGateway {
	return &MockGateway{nextID: 100}
}

func (m *MockGateway) CopyContent(
	ctx context.Context,
	target gateway.Target,
	source gateway.SourceRef,
	buttons []gateway.Button,
) ([]int, error) {
	m.mu.Lock()
	m.CopyContentCalls = append(m.CopyContentCalls, CopyContentCall{
		Target:  target,
		Source:  source,
		Buttons: buttons,
	})
	m.mu.Unlock()

	if m.CopyContentFn != nil {
		return m.CopyContentFn(ctx, target, source, buttons)
	}

	ids := make([]int, len(source.MessageIDs))
	for i := range ids {
		ids[i] = m.issueID()
	}
	return ids, nil
}

func (m *MockGateway) SendText(
	ctx context.Context,
	target gateway.Target,
	text string,
	replyTo *int,
	buttons []gateway.Button,
) (int, error) {
	m.mu.Lock()
	m.SendTextCalls = append(m.SendTextCalls, SendTextCall{
		Target:  target,
		Text:    text,
		ReplyTo: replyTo,
		Buttons: buttons,
	})
	m.mu.Unlock()

	if m.SendTextFn != nil {
		return m.SendTextFn(ctx, target, text, replyTo, buttons)
	}
	return m.issueID(), nil
}

func (m *MockGateway) ClearControls(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	m.ClearControlsCalls = append(m.ClearControlsCalls, MessageRef{ChatID: chatID, MessageID: messageID})
	m.mu.Unlock()

	if m.ClearControlsFn != nil {
		return m.ClearControlsFn(ctx, chatID, messageID)
	}
	return nil
}

func (m *MockGateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	m.DeleteMessageCalls = append(m.DeleteMessageCalls, MessageRef{ChatID: chatID, MessageID: messageID})
	m.mu.Unlock()

	if m.DeleteMessageFn != nil {
		return m.DeleteMessageFn(ctx, chatID, messageID)
	}
	return nil
}

func (m *MockGateway) issueID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id
}
