package discordgo

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWebhookExecutor struct {
	id, token string
	wait      bool
	params    *discordgo.WebhookParams
	err       error
}

func (m *mockWebhookExecutor) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.id, m.token, m.wait, m.params = webhookID, token, wait, data
	return nil, m.err
}

func TestWebhookNotifier_Notify(t *testing.T) {
	t.Parallel()

	cl := &mockWebhookExecutor{}
	n := newWebhookNotifier(cl, "123", "secret", *log.Default())

	require.NoError(t, n.Notify("Focus complete", "Time for a short break"))
	assert.Equal(t, "123", cl.id)
	assert.Equal(t, "secret", cl.token)
	assert.False(t, cl.wait)
	require.Len(t, cl.params.Embeds, 1)
	assert.Equal(t, "Focus complete", cl.params.Embeds[0].Title)
	assert.Equal(t, "Time for a short break", cl.params.Embeds[0].Description)
	assert.Equal(t, "focusmomo", cl.params.Username)
}

func TestWebhookNotifier_Errors(t *testing.T) {
	t.Parallel()

	cl := &mockWebhookExecutor{err: errors.New("rate limited")}
	n := newWebhookNotifier(cl, "123", "secret", *log.Default())
	assert.ErrorContains(t, n.Notify("t", "m"), "rate limited")

	_, err := NewWebhookNotifier("", "secret", "", *log.Default())
	assert.Error(t, err)
}
