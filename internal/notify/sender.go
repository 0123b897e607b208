package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

type DiscordSender struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordSender posts reminders to a channel over the REST API; no gateway connection is opened.
func NewDiscordSender(token, channelID string) (*DiscordSender, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	return &DiscordSender{session: session, channelID: channelID}, nil
}

func (d *DiscordSender) Send(ctx context.Context, text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending discord message: %w", err)
	}

	return nil
}

// LogSender writes reminders to the process log when no chat channel is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, text string) error {
	slog.Info("zakat reminder", "text", text)
	return nil
}
