package notify

import (
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API method we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackNotifier posts events to a Slack channel.
type SlackNotifier struct {
	client  slackClient
	channel string
}

// NewSlackNotifier builds a SlackNotifier from a bot token and channel ID.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slackapi.New(token),
		channel: channel,
	}
}

// Send posts the event as a single message.
func (n *SlackNotifier) Send(e Event) error {
	_, _, err := n.client.PostMessage(n.channel, slackapi.MsgOptionText(Message(e), false))
	if err != nil {
		return fmt.Errorf("notify: slack post to %s: %w", n.channel, err)
	}
	return nil
}
