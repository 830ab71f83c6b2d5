package api

import (
	"errors"
	"io"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/attachments"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/router"
)

func (s *Server) ListAttachments(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, map[string]any{
		"attachments": s.d.Attachments.List(),
		"total_size":  s.d.Attachments.TotalSize(),
	})
}

// AddAttachment takes a multipart upload in the "file" field.
func (s *Server) AddAttachment(ctx *fasthttp.RequestCtx) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	if err := s.d.Attachments.CanAdd(fh.Size); err != nil {
		status := fasthttp.StatusConflict
		if errors.Is(err, attachments.ErrTooLarge) {
			status = fasthttp.StatusRequestEntityTooLarge
		}
		router.WriteJSONError(ctx, status, err.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	a := attachments.FromBytes(fh.Filename, data)
	a.Description = string(ctx.FormValue("description"))
	id := s.d.Attachments.Add(a)
	logger.Debug("attachment_added", "id", id, "name", a.Name, "size", a.Size)
	ctx.SetStatusCode(fasthttp.StatusCreated)
	router.WriteJSONOk(ctx, map[string]any{"id": id})
}

func (s *Server) DeleteAttachment(ctx *fasthttp.RequestCtx) {
	id, err := strconv.Atoi(router.PathParam(ctx, "id"))
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid attachment id")
		return
	}
	if !s.d.Attachments.Remove(id) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "attachment not found")
		return
	}
	router.WriteJSONOk(ctx, nil)
}

func (s *Server) GetSendSettings(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, s.d.Persist.LoadSendSettings())
}

func (s *Server) PutSendSettings(ctx *fasthttp.RequestCtx) {
	var settings models.SendSettings
	if !router.DecodeBody(ctx, &settings) {
		return
	}
	if settings.Mode != models.SendModeWebhook && settings.Mode != models.SendModeChannel {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "mode must be webhook or channel")
		return
	}
	if err := s.d.Persist.SaveSendSettings(settings); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	_ = router.WriteJSON(ctx, settings)
}

func (s *Server) GetCollapsedStates(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, map[string]any{"states": s.d.Persist.LoadCollapsedStates()})
}

func (s *Server) PutCollapsedStates(ctx *fasthttp.RequestCtx) {
	var body struct {
		States map[string]bool `json:"states"`
	}
	if !router.DecodeBody(ctx, &body) {
		return
	}
	if body.States == nil {
		body.States = map[string]bool{}
	}
	if err := s.d.Persist.SaveCollapsedStates(body.States); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	_ = router.WriteJSON(ctx, body)
}

func (s *Server) GetCommands(ctx *fasthttp.RequestCtx) {
	if s.d.Commands == nil {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "custom commands are not available")
		return
	}
	_ = router.WriteJSON(ctx, s.d.Commands)
}
