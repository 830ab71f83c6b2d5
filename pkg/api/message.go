package api

import (
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/router"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/wire"
)

// writeMessage answers with the document and the revision it was read at.
func (s *Server) writeMessage(ctx *fasthttp.RequestCtx) {
	m, rev := s.d.Store.SnapshotWithRevision()
	_ = router.WriteJSON(ctx, map[string]any{"revision": rev, "data": m})
}

func (s *Server) GetMessage(ctx *fasthttp.RequestCtx) {
	s.writeMessage(ctx)
}

// PutMessage replaces the document. A body that is not a structurally valid
// message leaves the document untouched.
func (s *Server) PutMessage(ctx *fasthttp.RequestCtx) {
	span := s.d.Tracer.Start("message.replace")
	m, err := schema.Parse(ctx.PostBody(), s.d.Store.Generator())
	span.Mark("parse")
	if err != nil {
		span.End(err)
		telemetry.ParseFailures.WithLabelValues("api").Inc()
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "failed to parse message: "+err.Error())
		return
	}
	s.d.Store.Replace(m)
	span.End(nil)
	s.writeMessage(ctx)
}

func (s *Server) ClearMessage(ctx *fasthttp.RequestCtx) {
	s.d.Store.Clear()
	s.d.Attachments.Clear()
	s.writeMessage(ctx)
}

func (s *Server) ResetMessage(ctx *fasthttp.RequestCtx) {
	s.d.Store.Reset()
	s.d.Attachments.Clear()
	s.writeMessage(ctx)
}

func (s *Server) SetComponentsV2(ctx *fasthttp.RequestCtx) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if !router.DecodeBody(ctx, &body) {
		return
	}
	s.d.Store.SetComponentsV2Enabled(body.Enabled)
	s.writeMessage(ctx)
}

// ApplyOp runs one editing command against the message, or against the
// custom command actions when scope is "commands".
func (s *Server) ApplyOp(ctx *fasthttp.RequestCtx) {
	var req OpRequest
	if !router.DecodeBody(ctx, &req) {
		return
	}

	t := &target{msg: s.d.Store, actions: s.d.Store, canAddAction: s.d.Store.CanAddAction}
	if req.Scope == ScopeCommands {
		if s.d.Commands == nil {
			router.WriteJSONError(ctx, fasthttp.StatusNotFound, "custom commands are not available")
			return
		}
		t = &target{actions: s.d.Commands}
	} else if req.Scope != "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "unknown scope: "+req.Scope)
		return
	}

	span := s.d.Tracer.Start("op." + req.Op)
	res, err := dispatch(t, &req)
	span.End(err)
	if err != nil {
		var oe *opError
		if errors.As(err, &oe) {
			router.WriteJSONError(ctx, oe.status, err.Error())
			return
		}
		logger.Error("op_failed", "op", req.Op, "error", err)
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	out := map[string]any{"result": res}
	if t.msg != nil {
		out["revision"] = s.d.Store.Revision()
	}
	_ = router.WriteJSON(ctx, out)
}

func (s *Server) ExportMessage(ctx *fasthttp.RequestCtx) {
	data, err := wire.Export(s.d.Store)
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetBody(data)
}

// ImportMessage takes JSON editor text and replaces the document with it.
func (s *Server) ImportMessage(ctx *fasthttp.RequestCtx) {
	if err := wire.Import(s.d.Store, ctx.PostBody()); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	s.writeMessage(ctx)
}

// GetPreview returns the last rendered projection. With ?flush=true any
// pending render runs first.
func (s *Server) GetPreview(ctx *fasthttp.RequestCtx) {
	if s.d.Preview == nil {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "preview is disabled")
		return
	}
	view := s.d.Preview.Current()
	if ctx.QueryArgs().GetBool("flush") {
		view = s.d.Preview.Flush()
	}
	_ = router.WriteJSON(ctx, view)
}

// ValidateMessage lists the limits the document currently breaks.
func (s *Server) ValidateMessage(ctx *fasthttp.RequestCtx) {
	problems := []string{}
	if err := schema.Validate(s.d.Store.Snapshot(), s.d.Store.Limits()); err != nil {
		problems = violations(err)
	}
	_ = router.WriteJSON(ctx, map[string]any{"valid": len(problems) == 0, "problems": problems})
}

func violations(err error) []string {
	var out []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func (s *Server) historyState() map[string]any {
	h := s.d.History
	return map[string]any{
		"position": h.Position(),
		"steps":    h.Len(),
		"can_undo": h.CanUndo(),
		"can_redo": h.CanRedo(),
		"revision": s.d.Store.Revision(),
	}
}

func (s *Server) move(ctx *fasthttp.RequestCtx, step func() bool) {
	if s.d.History == nil {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "history is disabled")
		return
	}
	moved := step()
	out := s.historyState()
	out["moved"] = moved
	_ = router.WriteJSON(ctx, out)
}

func (s *Server) Undo(ctx *fasthttp.RequestCtx) {
	s.move(ctx, func() bool { return s.d.History.Undo() })
}

func (s *Server) Redo(ctx *fasthttp.RequestCtx) {
	s.move(ctx, func() bool { return s.d.History.Redo() })
}

func (s *Server) GetHistory(ctx *fasthttp.RequestCtx) {
	if s.d.History == nil {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "history is disabled")
		return
	}
	_ = router.WriteJSON(ctx, s.historyState())
}
