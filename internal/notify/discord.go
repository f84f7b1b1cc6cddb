package notify

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo method we use, enabling test mocks.
// Messages go over the REST API; no gateway connection is needed.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts events to a Discord channel.
type DiscordNotifier struct {
	sess    discordSession
	channel string
}

// NewDiscordNotifier builds a DiscordNotifier from a bot token and channel ID.
func NewDiscordNotifier(token, channel string) *DiscordNotifier {
	sess, err := discordgo.New("Bot " + token)
	if err != nil {
		// discordgo.New only fails on malformed parameters; fall back to a
		// notifier that reports the problem on every send.
		log.Printf("notify: discord session: %v", err)
		return &DiscordNotifier{channel: channel}
	}
	return &DiscordNotifier{sess: sess, channel: channel}
}

// Send posts the event as a single message.
func (n *DiscordNotifier) Send(e Event) error {
	if n.sess == nil {
		return fmt.Errorf("notify: discord session unavailable")
	}
	if _, err := n.sess.ChannelMessageSend(n.channel, Message(e)); err != nil {
		return fmt.Errorf("notify: discord post to %s: %w", n.channel, err)
	}
	return nil
}
