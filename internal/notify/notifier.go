// Package notify pushes out-of-band alerts when a conversation stalls
// waiting for user confirmation. Slack is the only wired channel; a nil
// Notifier is a safe no-op so callers never branch on configuration.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by Notifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Notifier posts alerts to a fixed Slack channel.
type Notifier struct {
	api     SlackAPI
	channel string
}

// NewSlack creates a Notifier backed by the Slack web API. Returns nil when
// token or channel is empty; methods on a nil Notifier do nothing.
func NewSlack(token, channel string) *Notifier {
	if token == "" || channel == "" {
		return nil
	}

	return &Notifier{
		api:     slacklib.New(token),
		channel: channel,
	}
}

// NewWithAPI creates a Notifier with an injected API client.
func NewWithAPI(api SlackAPI, channel string) *Notifier {
	return &Notifier{api: api, channel: channel}
}

// ConfirmationPending announces that an agent is blocked on user approval.
func (n *Notifier) ConfirmationPending(ctx context.Context, conversationID uuid.UUID, title string) error {
	if n == nil {
		return nil
	}

	if title == "" {
		title = "untitled conversation"
	}

	text := fmt.Sprintf("Agent is waiting for confirmation in %q (conversation %s)", title, conversationID)

	_, _, err := n.api.PostMessageContext(ctx, n.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.Notifier.ConfirmationPending: %w", err)
	}

	return nil
}
