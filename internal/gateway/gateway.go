// Package gateway defines the messaging-layer contract the scheduling core
// depends on, together with the typed error conditions the core's recovery
// protocol branches on, and a Telegram Bot API implementation.
package gateway

import (
	"context"
	"errors"
)

// Typed gateway errors. Implementations map their transport's error signals
// onto these so the core can branch structurally instead of matching error
// strings.
var (
	// ErrReplyTargetMissing means the message a reminder tried to reply to no
	// longer exists (e.g. the user deleted it). The dispatcher self-heals by
	// falling back to a full re-copy.
	ErrReplyTargetMissing = errors.New("reply target message missing")

	// ErrMessageNotFound means the message an edit/delete targeted is gone.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRateLimited means the messaging layer rejected the call for flood
	// control reasons.
	ErrRateLimited = errors.New("rate limited by messaging layer")

	// ErrForbidden means the bot may not write to the target chat (blocked,
	// kicked, or never started).
	ErrForbidden = errors.New("forbidden by messaging layer")
)

// Target identifies the chat a delivery goes to.
type Target struct {
	ChatID int64
}

// SourceRef identifies the original content of a card: the chat it lives in
// and the ordered message ids that make it up (several for media groups).
type SourceRef struct {
	ChatID     int64
	MessageIDs []int
}

// Button is one grading control attached to a delivered message.
type Button struct {
	Text string
	Data string
}

// Gateway is the narrow messaging contract the core consumes. All calls may
// block on network I/O and honor ctx cancellation.
type Gateway interface {
	// CopyContent copies the source messages into the target chat in their
	// original order, attaching the buttons to the last copy. It returns the
	// new message ids in the same order.
	CopyContent(ctx context.Context, target Target, source SourceRef, buttons []Button) ([]int, error)

	// SendText sends a text message to the target chat. A non-nil replyTo
	// anchors the message as a reply; a missing anchor surfaces as
	// ErrReplyTargetMissing. Buttons, if any, are attached to the message.
	// Returns the new message id.
	SendText(ctx context.Context, target Target, text string, replyTo *int, buttons []Button) (int, error)

	// ClearControls removes the grading buttons from a previously delivered
	// message.
	ClearControls(ctx context.Context, chatID int64, messageID int) error

	// DeleteMessage removes a message from a chat.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
