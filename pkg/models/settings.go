package models

// SendMode selects how a message is delivered.
type SendMode string

const (
	SendModeWebhook SendMode = "webhook"
	SendModeChannel SendMode = "channel"
)

// SendSettings remembers where the user last sent or restored a message.
type SendSettings struct {
	Mode       SendMode  `json:"mode"`
	MessageID  Snowflake `json:"messageId,omitempty"`
	WebhookURL string    `json:"webhookUrl,omitempty"`
	ThreadID   Snowflake `json:"threadId,omitempty"`
	GuildID    Snowflake `json:"guildId,omitempty"`
	ChannelID  Snowflake `json:"channelId,omitempty"`
	ThreadName string    `json:"threadName,omitempty"`
}

// DefaultSendSettings sends through a webhook.
func DefaultSendSettings() SendSettings {
	return SendSettings{Mode: SendModeWebhook}
}
