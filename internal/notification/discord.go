package notification

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"reconview/internal/config"
	"reconview/pkg/lifecycle"

	"github.com/bwmarrin/discordgo"
)

type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

// Notifier delivers job notifications somewhere a human will see them
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// embedSender is the part of discordgo.Session used to post embeds
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

type DiscordNotifier struct {
	sg        embedSender
	channelID string
}

func NewDiscordNotifier(cfg config.DiscordConfig) (*DiscordNotifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token not set")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord channel id not set")
	}

	sg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	if err := sg.Open(); err != nil {
		return nil, err
	}

	return &DiscordNotifier{sg: sg, channelID: cfg.ChannelID}, nil
}

func severityColor(severity string) int {
	switch severity {
	case "critical":
		return 0x8B0000
	case "high":
		return 0xFF0000
	case "medium":
		return 0xFF8C00
	case "low":
		return 0xFFD700
	case "info":
		return 0x00BFFF
	case "success":
		return 0x2E8B57
	default:
		return 0x808080
	}
}

// Embed converts msg into a Discord embed with fields in name order
func Embed(msg Message) *discordgo.MessageEmbed {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       severityColor(msg.Severity),
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Fields) > 0 {
		names := make([]string, 0, len(msg.Fields))
		for name := range msg.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		fields := make([]*discordgo.MessageEmbedField, 0, len(names))
		for _, name := range names {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   name,
				Value:  msg.Fields[name],
				Inline: true,
			})
		}
		embed.Fields = fields
	}
	return embed
}

func (c *DiscordNotifier) Send(ctx context.Context, msg Message) error {
	if c.sg == nil {
		return fmt.Errorf("discord client not initialized")
	}
	_, err := c.sg.ChannelMessageSendEmbed(c.channelID, Embed(msg), discordgo.WithContext(ctx))
	return err
}

func (c *DiscordNotifier) Close() error {
	if c.sg != nil {
		return c.sg.Close()
	}
	return nil
}

// JobMessage describes a job that reached a terminal state
func JobMessage(snap lifecycle.Snapshot) Message {
	job := snap.Job
	msg := Message{
		Title:    "Scan finished",
		Severity: "success",
		Fields: map[string]string{
			"Scan ID":  job.ID,
			"Target":   job.Target,
			"Tools":    strings.Join(job.Tools, ", "),
			"Progress": strconv.Itoa(job.Progress) + "%",
		},
		Description: fmt.Sprintf("Scan of %s completed", job.Target),
	}
	if snap.State == lifecycle.StateFailed {
		msg.Title = "Scan failed"
		msg.Severity = "high"
		msg.Description = fmt.Sprintf("Scan of %s failed", job.Target)
	}
	return msg
}

const sendTimeout = 10 * time.Second

// TransitionHook sends a message for every job that finishes. Send
// failures are passed to onError.
func TransitionHook(n Notifier, onError func(error)) lifecycle.TransitionHook {
	return func(ctx context.Context, from lifecycle.State, snap lifecycle.Snapshot) {
		if from != lifecycle.StateRunning || !snap.State.Terminal() || snap.Job == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := n.Send(ctx, JobMessage(snap)); err != nil && onError != nil {
			onError(err)
		}
	}
}
