package api

import (
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/router"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/wire"
)

func (s *Server) requireBackend(ctx *fasthttp.RequestCtx) bool {
	if s.d.Backend == nil {
		router.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, "no backend configured")
		return false
	}
	return true
}

func writeBackendError(ctx *fasthttp.RequestCtx, op string, err error) {
	var apiErr *wire.APIError
	if errors.As(err, &apiErr) {
		logger.Warn("backend_rejected", "op", op, "status", apiErr.Status, "code", apiErr.Code)
	} else {
		logger.Error("backend_failed", "op", op, "error", err)
	}
	router.WriteJSONError(ctx, fasthttp.StatusBadGateway, err.Error())
}

type restoreRequest struct {
	// Source is "channel" or "webhook".
	Source     string           `json:"source"`
	GuildID    models.Snowflake `json:"guild_id"`
	ChannelID  models.Snowflake `json:"channel_id"`
	WebhookURL string           `json:"webhook_url"`
	ThreadID   models.Snowflake `json:"thread_id"`
	MessageID  models.Snowflake `json:"message_id"`
}

// Restore loads a message already posted on Discord into the editor. The
// document and attachments are only replaced once the backend answered with
// a valid message.
func (s *Server) Restore(ctx *fasthttp.RequestCtx) {
	if !s.requireBackend(ctx) {
		return
	}
	var req restoreRequest
	if !router.DecodeBody(ctx, &req) {
		return
	}

	span := s.d.Tracer.Start("backend.restore")
	var (
		res      *wire.RestoreResponse
		err      error
		settings = s.d.Persist.LoadSendSettings()
	)
	switch models.SendMode(req.Source) {
	case models.SendModeChannel:
		res, err = s.d.Backend.RestoreFromChannel(ctx, &wire.RestoreChannelRequest{
			GuildID:   req.GuildID,
			ChannelID: req.ChannelID,
			MessageID: req.MessageID,
		})
		settings.Mode = models.SendModeChannel
		settings.GuildID = req.GuildID
		settings.ChannelID = req.ChannelID
	case models.SendModeWebhook:
		res, err = s.d.Backend.RestoreFromWebhook(ctx, &wire.RestoreWebhookRequest{
			WebhookURL: req.WebhookURL,
			ThreadID:   req.ThreadID,
			MessageID:  req.MessageID,
		})
		settings.Mode = models.SendModeWebhook
		settings.WebhookURL = req.WebhookURL
		settings.ThreadID = req.ThreadID
	default:
		span.End(nil)
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "source must be channel or webhook")
		return
	}
	span.Mark("fetch")
	if err != nil {
		span.End(err)
		writeBackendError(ctx, "restore", err)
		return
	}

	s.d.Store.Replace(res.Data)
	s.d.Attachments.Replace(res.Attachments)
	settings.MessageID = req.MessageID
	if err := s.d.Persist.SaveSendSettings(settings); err != nil {
		logger.Warn("send_settings_save_failed", "error", err)
	}
	span.End(nil)
	s.writeMessage(ctx)
}

// Send delivers the current document using the remembered send settings.
func (s *Server) Send(ctx *fasthttp.RequestCtx) {
	if !s.requireBackend(ctx) {
		return
	}
	m := s.d.Store.Snapshot()
	if err := schema.Validate(m, s.d.Store.Limits()); err != nil {
		_ = router.WriteJSONStatus(ctx, fasthttp.StatusUnprocessableEntity, map[string]any{
			"error":    "message exceeds limits",
			"problems": violations(err),
		})
		return
	}

	settings := s.d.Persist.LoadSendSettings()
	span := s.d.Tracer.Start("backend.send")
	res, err := s.d.Backend.SendMessage(ctx, wire.NewSendRequest(settings, m, s.d.Attachments.List()))
	span.End(err)
	if err != nil {
		writeBackendError(ctx, "send", err)
		return
	}
	logger.Info("message_sent", "mode", settings.Mode, "message_id", res.MessageID)
	_ = router.WriteJSON(ctx, res)
}

type saveRequest struct {
	// ID updates an existing saved message instead of creating one.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) SaveMessage(ctx *fasthttp.RequestCtx) {
	if !s.requireBackend(ctx) {
		return
	}
	var req saveRequest
	if !router.DecodeBody(ctx, &req) {
		return
	}
	if req.Name == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "name is required")
		return
	}
	body := &wire.SaveMessageRequest{Name: req.Name, Description: req.Description, Data: s.d.Store.Snapshot()}

	var (
		saved *wire.SavedMessage
		err   error
	)
	if req.ID != "" {
		saved, err = s.d.Backend.UpdateSavedMessage(ctx, req.ID, body)
	} else {
		saved, err = s.d.Backend.CreateSavedMessage(ctx, body)
	}
	if err != nil {
		writeBackendError(ctx, "save", err)
		return
	}
	_ = router.WriteJSON(ctx, saved)
}

func (s *Server) LoadSavedMessage(ctx *fasthttp.RequestCtx) {
	if !s.requireBackend(ctx) {
		return
	}
	saved, err := s.d.Backend.GetSavedMessage(ctx, router.PathParam(ctx, "id"))
	if err != nil {
		writeBackendError(ctx, "load_saved", err)
		return
	}
	s.d.Store.Replace(saved.Data)
	s.writeMessage(ctx)
}

// ScheduleMessage validates a schedule locally before handing it to the
// backend. Repeating schedules without a cron expression use the default.
func (s *Server) ScheduleMessage(ctx *fasthttp.RequestCtx) {
	if !s.requireBackend(ctx) {
		return
	}
	var req wire.ScheduledMessageRequest
	if !router.DecodeBody(ctx, &req) {
		return
	}
	if !req.OnlyOnce && req.CronExpression == "" {
		req.CronExpression = s.d.DefaultCron
	}
	next, err := req.Validate(s.d.Clock.Now())
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	sched, err := s.d.Backend.ScheduleMessage(ctx, &req)
	if err != nil {
		writeBackendError(ctx, "schedule", err)
		return
	}
	logger.Info("message_scheduled", "id", sched.ID, "next_at", next)
	_ = router.WriteJSON(ctx, sched)
}
