// Package discordgo provides Discord API adapters using package github.com/bwmarrin/discordgo
package discordgo

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
)

const embedColor = 0xE8554E

type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// webhookNotifier posts notifications as embeds through a Discord webhook.
type webhookNotifier struct {
	cl       webhookExecutor
	id       string
	token    string
	username string
	l        log.Logger
}

var _ focusmomo.Notifier = (*webhookNotifier)(nil)

// NewWebhookNotifier creates a tokenless discordgo session; webhook execution needs no bot token.
func NewWebhookNotifier(id, token, userAgent string, logger log.Logger) (*webhookNotifier, error) {
	if id == "" || token == "" {
		return nil, fmt.Errorf("provide webhook id and token")
	}
	cl, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	cl.ShouldRetryOnRateLimit = false
	cl.Client = &http.Client{Timeout: 10 * time.Second}
	if userAgent != "" {
		cl.UserAgent = userAgent
	}
	return newWebhookNotifier(cl, id, token, logger), nil
}

func newWebhookNotifier(cl webhookExecutor, id, token string, logger log.Logger) *webhookNotifier {
	return &webhookNotifier{
		cl:       cl,
		id:       id,
		token:    token,
		username: "focusmomo",
		l:        logger,
	}
}

func (n *webhookNotifier) Notify(title, message string) error {
	params := &discordgo.WebhookParams{
		Username: n.username,
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       title,
				Description: message,
				Color:       embedColor,
				Timestamp:   time.Now().Format(time.RFC3339),
			},
		},
	}
	n.l.Debug("executing webhook", "title", title)
	if _, err := n.cl.WebhookExecute(n.id, n.token, false, params); err != nil {
		return fmt.Errorf("execute webhook: %w", err)
	}
	return nil
}
