package wire

import (
	"time"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// SaveMessageRequest is the body of creating or updating a saved message.
type SaveMessageRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Data        *models.Message `json:"data"`
}

// SavedMessage is a message stored by the backend.
type SavedMessage struct {
	ID          string           `json:"id"`
	CreatorID   models.Snowflake `json:"creator_id"`
	GuildID     models.Snowflake `json:"guild_id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Data        *models.Message  `json:"data"`
}

type RestoreChannelRequest struct {
	GuildID   models.Snowflake `json:"guild_id"`
	ChannelID models.Snowflake `json:"channel_id"`
	MessageID models.Snowflake `json:"message_id"`
}

type RestoreWebhookRequest struct {
	WebhookURL string           `json:"webhook_url"`
	ThreadID   models.Snowflake `json:"thread_id,omitempty"`
	MessageID  models.Snowflake `json:"message_id"`
}

// RestoreResponse carries a message rebuilt from one already on Discord.
type RestoreResponse struct {
	Data        *models.Message      `json:"data"`
	Attachments []*models.Attachment `json:"attachments"`
}

type SendRequest struct {
	Mode       models.SendMode  `json:"mode"`
	WebhookURL string           `json:"webhook_url,omitempty"`
	GuildID    models.Snowflake `json:"guild_id,omitempty"`
	ChannelID  models.Snowflake `json:"channel_id,omitempty"`
	ThreadID   models.Snowflake `json:"thread_id,omitempty"`
	ThreadName string           `json:"thread_name,omitempty"`
	// MessageID edits an existing message instead of sending a new one.
	MessageID   models.Snowflake     `json:"message_id,omitempty"`
	Data        *models.Message      `json:"data"`
	Attachments []*models.Attachment `json:"attachments"`
}

// NewSendRequest addresses a send using the remembered settings.
func NewSendRequest(s models.SendSettings, m *models.Message, attachments []*models.Attachment) *SendRequest {
	if attachments == nil {
		attachments = []*models.Attachment{}
	}
	return &SendRequest{
		Mode:        s.Mode,
		WebhookURL:  s.WebhookURL,
		GuildID:     s.GuildID,
		ChannelID:   s.ChannelID,
		ThreadID:    s.ThreadID,
		ThreadName:  s.ThreadName,
		MessageID:   s.MessageID,
		Data:        m,
		Attachments: attachments,
	}
}

type SendResponse struct {
	MessageID models.Snowflake `json:"message_id"`
	ChannelID models.Snowflake `json:"channel_id"`
}

// ScheduledMessageRequest sends a saved message once at StartAt, or
// repeatedly on CronExpression between StartAt and EndAt.
type ScheduledMessageRequest struct {
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	GuildID        models.Snowflake `json:"guild_id"`
	ChannelID      models.Snowflake `json:"channel_id"`
	ThreadID       models.Snowflake `json:"thread_id,omitempty"`
	SavedMessageID string           `json:"saved_message_id"`
	CronExpression string           `json:"cron_expression,omitempty"`
	CronTimezone   string           `json:"cron_timezone,omitempty"`
	StartAt        time.Time        `json:"start_at"`
	EndAt          *time.Time       `json:"end_at,omitempty"`
	OnlyOnce       bool             `json:"only_once"`
	Enabled        bool             `json:"enabled"`
}

type ScheduledMessage struct {
	ID        string    `json:"id"`
	NextAt    time.Time `json:"next_at"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}
