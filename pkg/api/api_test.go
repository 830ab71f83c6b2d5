package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/attachments"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/history"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/persist"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/preview"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/store"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/wire"
)

type fakeBackend struct {
	mu       sync.Mutex
	sent     []*wire.SendRequest
	restored *wire.RestoreResponse
	err      error
}

func (f *fakeBackend) SendMessage(_ context.Context, req *wire.SendRequest) (*wire.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &wire.SendResponse{MessageID: 42, ChannelID: 7}, nil
}

func (f *fakeBackend) RestoreFromChannel(context.Context, *wire.RestoreChannelRequest) (*wire.RestoreResponse, error) {
	return f.restored, f.err
}

func (f *fakeBackend) RestoreFromWebhook(context.Context, *wire.RestoreWebhookRequest) (*wire.RestoreResponse, error) {
	return f.restored, f.err
}

func (f *fakeBackend) CreateSavedMessage(_ context.Context, req *wire.SaveMessageRequest) (*wire.SavedMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &wire.SavedMessage{ID: "new", Name: req.Name, Data: req.Data}, nil
}

func (f *fakeBackend) UpdateSavedMessage(_ context.Context, id string, req *wire.SaveMessageRequest) (*wire.SavedMessage, error) {
	return &wire.SavedMessage{ID: id, Name: req.Name, Data: req.Data}, f.err
}

func (f *fakeBackend) GetSavedMessage(_ context.Context, id string) (*wire.SavedMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &wire.SavedMessage{ID: id, Data: &models.Message{Content: "saved " + id}}, nil
}

func (f *fakeBackend) ScheduleMessage(_ context.Context, req *wire.ScheduledMessageRequest) (*wire.ScheduledMessage, error) {
	return &wire.ScheduledMessage{ID: "sched", Name: req.Name, Enabled: req.Enabled}, f.err
}

type testEnv struct {
	store   *editor.Store
	backend *fakeBackend
	client  *fasthttp.Client
}

func newTestEnv(t *testing.T, backend wire.Backend, gw *Gateway) *testEnv {
	t.Helper()
	gen := ids.New()
	st := editor.New(gen, nil)
	db, err := store.OpenMemory()
	require.NoError(t, err)

	mock := clock.NewMock()
	h := history.New(st, history.WithClock(mock))
	p := preview.New(st, preview.EscapeRenderer{}, preview.WithClock(mock))
	srv := NewServer(Deps{
		Store:       st,
		History:     h,
		Preview:     p,
		Attachments: attachments.New(gen, st.Limits()),
		Commands:    editor.NewActionStore(gen, nil),
		Persist:     persist.New(db, gen),
		Backend:     backend,
		DefaultCron: "0 12 * * *",
		Clock:       mock,
	})

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, Handler(srv, gw)) }()
	t.Cleanup(func() {
		_ = ln.Close()
		h.Close()
		p.Close()
		_ = db.Close()
	})

	env := &testEnv{
		store:  st,
		client: &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }},
	}
	if fb, ok := backend.(*fakeBackend); ok {
		env.backend = fb
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://embedgen" + path)
	switch b := body.(type) {
	case nil:
	case string:
		req.SetBodyString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req.SetBody(raw)
	}
	require.NoError(t, e.client.DoTimeout(req, resp, 5*time.Second))

	var out map[string]any
	if len(resp.Body()) > 0 && resp.Body()[0] == '{' {
		require.NoError(t, json.Unmarshal(resp.Body(), &out))
	}
	return resp.StatusCode(), out
}

func TestMessageOps(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, out := env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "SetContent", Value: json.RawMessage(`"hello"`)})
	require.Equal(t, 200, status)
	assert.Equal(t, "hello", env.store.Snapshot().Content)
	assert.NotZero(t, out["revision"])

	status, out = env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "AddEmbed", Value: json.RawMessage(`{"title":"second"}`)})
	require.Equal(t, 200, status)
	id := out["result"].(map[string]any)["id"]
	assert.NotZero(t, id)
	assert.Equal(t, "second", env.store.GetEmbed(1).Title)

	env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "SetEmbedTitle", Embed: 1, Value: json.RawMessage(`"renamed"`)})
	assert.Equal(t, "renamed", env.store.GetEmbed(1).Title)

	status, _ = env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "AddComponent", Value: json.RawMessage(`{"type":1,"components":[{"type":2,"style":1,"label":"Go"}]}`)})
	require.Equal(t, 200, status)
	assert.Equal(t, "Go", env.store.GetButton(editor.Path{1, 0}).Label)
}

func TestOpErrorsLeaveDocumentUntouched(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	before, rev := env.store.SnapshotWithRevision()

	cases := []struct {
		name   string
		req    any
		status int
	}{
		{"unknown op", OpRequest{Op: "Explode"}, 400},
		{"missing value", OpRequest{Op: "SetContent"}, 400},
		{"wrong value type", OpRequest{Op: "SetTTS", Value: json.RawMessage(`"yes"`)}, 400},
		{"bad component", OpRequest{Op: "AddComponent", Value: json.RawMessage(`{"type":"row"}`)}, 400},
		{"container in legacy mode", OpRequest{Op: "AddComponent", Value: json.RawMessage(`{"type":17,"components":[{"type":10,"content":"x"}]}`)}, 400},
		{"text display in row", OpRequest{Op: "AddComponent", Value: json.RawMessage(`{"type":1,"components":[{"type":10,"content":"x"}]}`)}, 400},
		{"bad action type", OpRequest{Op: "AddAction", Key: "x", Value: json.RawMessage(`99`)}, 400},
		{"message op in commands scope", OpRequest{Op: "SetContent", Scope: ScopeCommands, Value: json.RawMessage(`"x"`)}, 400},
		{"unknown scope", OpRequest{Op: "SetContent", Scope: "nope", Value: json.RawMessage(`"x"`)}, 400},
		{"malformed body", "{", 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := env.do(t, "POST", "/v1/message/ops", tc.req)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, out["error"])
		})
	}

	assert.Equal(t, rev, env.store.Revision())
	assert.Equal(t, before, env.store.Snapshot())
}

func TestReplaceMessage(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rev := env.store.Revision()

	status, out := env.do(t, "PUT", "/v1/message", `{"embeds":"nope"}`)
	assert.Equal(t, 400, status)
	assert.Contains(t, out["error"], "failed to parse message")
	assert.Equal(t, rev, env.store.Revision())

	status, out = env.do(t, "PUT", "/v1/message", `{"content":"replaced","embeds":[]}`)
	require.Equal(t, 200, status)
	assert.Equal(t, "replaced", out["data"].(map[string]any)["content"])

	status, _ = env.do(t, "DELETE", "/v1/message", nil)
	assert.Equal(t, 200, status)
	assert.Empty(t, env.store.Snapshot().Content)

	env.do(t, "POST", "/v1/message/reset", nil)
	assert.NotEmpty(t, env.store.Snapshot().Content)
}

func TestUndoRedo(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	original := env.store.Snapshot().Content

	env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "SetContent", Value: json.RawMessage(`"edited"`)})

	status, out := env.do(t, "POST", "/v1/message/undo", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, true, out["moved"])
	assert.Equal(t, true, out["can_redo"])
	assert.Equal(t, original, env.store.Snapshot().Content)

	_, out = env.do(t, "POST", "/v1/message/undo", nil)
	assert.Equal(t, false, out["moved"])

	env.do(t, "POST", "/v1/message/redo", nil)
	assert.Equal(t, "edited", env.store.Snapshot().Content)

	_, out = env.do(t, "GET", "/v1/message/history", nil)
	assert.EqualValues(t, 1, out["position"])
	assert.EqualValues(t, 1, out["steps"])
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, _ := env.do(t, "POST", "/v1/message/import", `[]`)
	assert.Equal(t, 400, status)

	status, out := env.do(t, "POST", "/v1/message/import", `{"content":"imported"}`)
	require.Equal(t, 200, status)
	assert.Equal(t, "imported", out["data"].(map[string]any)["content"])

	status, out = env.do(t, "GET", "/v1/message/export", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "imported", out["content"])
}

func TestPreviewAndValidate(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "SetContent", Value: json.RawMessage(`"<b>"`)})

	status, out := env.do(t, "GET", "/v1/message/preview?flush=true", nil)
	require.Equal(t, 200, status)
	assert.EqualValues(t, env.store.Revision(), out["revision"])

	_, out = env.do(t, "GET", "/v1/message/validate", nil)
	assert.Equal(t, true, out["valid"])
}

func TestCommandsScope(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, out := env.do(t, "POST", "/v1/message/ops", OpRequest{
		Op: "AddAction", Scope: ScopeCommands, Key: "ping", Value: json.RawMessage(`1`),
	})
	require.Equal(t, 200, status)
	assert.NotContains(t, out, "revision")

	env.do(t, "POST", "/v1/message/ops", OpRequest{
		Op: "SetActionText", Scope: ScopeCommands, Key: "ping", Index: 0, Value: json.RawMessage(`"pong"`),
	})

	_, out = env.do(t, "GET", "/v1/commands", nil)
	sets := out["actions"].(map[string]any)
	actions := sets["ping"].(map[string]any)["actions"].([]any)
	require.Len(t, actions, 1)
	assert.Equal(t, "pong", actions[0].(map[string]any)["text"])
}

func TestSettingsAndCollapsedStates(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, out := env.do(t, "GET", "/v1/send-settings", nil)
	assert.Equal(t, "webhook", out["mode"])

	status, _ := env.do(t, "PUT", "/v1/send-settings", map[string]any{"mode": "carrier-pigeon"})
	assert.Equal(t, 400, status)

	status, _ = env.do(t, "PUT", "/v1/send-settings", map[string]any{"mode": "channel", "channelId": "123"})
	require.Equal(t, 200, status)
	_, out = env.do(t, "GET", "/v1/send-settings", nil)
	assert.Equal(t, "channel", out["mode"])

	env.do(t, "PUT", "/v1/collapsed-states", map[string]any{"states": map[string]bool{"embed-1": true}})
	_, out = env.do(t, "GET", "/v1/collapsed-states", nil)
	assert.Equal(t, map[string]any{"embed-1": true}, out["states"])
}

func TestAttachments(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "note.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("hello world"))
	require.NoError(t, w.Close())

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.Header.SetMethod("POST")
	req.Header.SetContentType(w.FormDataContentType())
	req.SetRequestURI("http://embedgen/v1/attachments")
	req.SetBody(buf.Bytes())
	require.NoError(t, env.client.Do(req, resp))
	require.Equal(t, fasthttp.StatusCreated, resp.StatusCode())

	var created map[string]any
	require.NoError(t, json.Unmarshal(resp.Body(), &created))
	id := int(created["id"].(float64))

	_, out := env.do(t, "GET", "/v1/attachments", nil)
	list := out["attachments"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "note.txt", list[0].(map[string]any)["name"])
	assert.EqualValues(t, 11, out["total_size"])

	status, _ := env.do(t, "DELETE", "/v1/attachments/abc", nil)
	assert.Equal(t, 400, status)
	status, _ = env.do(t, "DELETE", "/v1/attachments/"+strconv.Itoa(id), nil)
	assert.Equal(t, 200, status)
	status, _ = env.do(t, "DELETE", "/v1/attachments/"+strconv.Itoa(id), nil)
	assert.Equal(t, 404, status)
}

func TestBackendRoutes(t *testing.T) {
	t.Run("no backend", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		for _, path := range []string{"/v1/send", "/v1/restore", "/v1/saved-messages", "/v1/scheduled-messages"} {
			status, out := env.do(t, "POST", path, map[string]any{})
			assert.Equal(t, 503, status, path)
			assert.Equal(t, "no backend configured", out["error"])
		}
	})

	t.Run("send", func(t *testing.T) {
		fb := &fakeBackend{}
		env := newTestEnv(t, fb, nil)
		status, out := env.do(t, "POST", "/v1/send", nil)
		require.Equal(t, 200, status)
		assert.Equal(t, "42", out["message_id"])
		require.Len(t, fb.sent, 1)
		assert.Equal(t, models.SendModeWebhook, fb.sent[0].Mode)
		assert.Equal(t, env.store.Snapshot().Content, fb.sent[0].Data.Content)
	})

	t.Run("restore replaces document", func(t *testing.T) {
		fb := &fakeBackend{restored: &wire.RestoreResponse{
			Data:        &models.Message{Content: "restored", Embeds: []*models.Embed{}},
			Attachments: []*models.Attachment{{Name: "a.png", Size: 3}},
		}}
		env := newTestEnv(t, fb, nil)

		status, _ := env.do(t, "POST", "/v1/restore", map[string]any{"source": "email"})
		assert.Equal(t, 400, status)

		status, out := env.do(t, "POST", "/v1/restore", map[string]any{
			"source": "channel", "guild_id": "1", "channel_id": "2", "message_id": "3",
		})
		require.Equal(t, 200, status)
		assert.Equal(t, "restored", out["data"].(map[string]any)["content"])

		_, out = env.do(t, "GET", "/v1/send-settings", nil)
		assert.Equal(t, "channel", out["mode"])
		assert.Equal(t, "3", out["messageId"])

		_, out = env.do(t, "GET", "/v1/attachments", nil)
		assert.Len(t, out["attachments"], 1)
	})

	t.Run("remote failure is a bad gateway", func(t *testing.T) {
		fb := &fakeBackend{err: &wire.APIError{Status: 404, Code: "unknown_message", Message: "gone"}}
		env := newTestEnv(t, fb, nil)
		rev := env.store.Revision()

		status, out := env.do(t, "POST", "/v1/restore", map[string]any{"source": "webhook", "webhook_url": "https://x", "message_id": "3"})
		assert.Equal(t, 502, status)
		assert.Contains(t, out["error"], "gone")
		assert.Equal(t, rev, env.store.Revision())
	})

	t.Run("saved messages", func(t *testing.T) {
		env := newTestEnv(t, &fakeBackend{}, nil)
		status, _ := env.do(t, "POST", "/v1/saved-messages", map[string]any{})
		assert.Equal(t, 400, status)

		status, out := env.do(t, "POST", "/v1/saved-messages", map[string]any{"name": "welcome"})
		require.Equal(t, 200, status)
		assert.Equal(t, "new", out["id"])

		_, out = env.do(t, "POST", "/v1/saved-messages", map[string]any{"id": "abc", "name": "welcome"})
		assert.Equal(t, "abc", out["id"])

		status, _ = env.do(t, "POST", "/v1/saved-messages/abc/load", nil)
		require.Equal(t, 200, status)
		assert.Equal(t, "saved abc", env.store.Snapshot().Content)
	})

	t.Run("schedule", func(t *testing.T) {
		env := newTestEnv(t, &fakeBackend{}, nil)
		status, out := env.do(t, "POST", "/v1/scheduled-messages", map[string]any{"name": "daily"})
		assert.Equal(t, 400, status)
		assert.Contains(t, out["error"], "invalid schedule")

		status, out = env.do(t, "POST", "/v1/scheduled-messages", map[string]any{
			"name": "daily", "saved_message_id": "abc", "channel_id": "5", "enabled": true,
		})
		require.Equal(t, 200, status)
		assert.Equal(t, "sched", out["id"])
	})
}

func TestGateway(t *testing.T) {
	mock := clock.NewMock()
	gw := NewGateway(GatewayConfig{RPS: 1, Burst: 1, AllowedOrigins: []string{"https://message.style"}}, WithGatewayClock(mock))
	defer gw.Close()
	env := newTestEnv(t, nil, gw)

	status, _ := env.do(t, "GET", "/v1/message", nil)
	assert.Equal(t, 200, status)
	status, out := env.do(t, "GET", "/v1/message", nil)
	assert.Equal(t, 429, status)
	assert.Equal(t, "rate limit exceeded", out["error"])

	status, _ = env.do(t, "GET", "/healthz", nil)
	assert.Equal(t, 200, status)

	mock.Add(time.Second)
	status, _ = env.do(t, "GET", "/v1/message", nil)
	assert.Equal(t, 200, status)

	mock.Add(time.Second)
	status, _ = env.do(t, "PATCH", "/v1/message", nil)
	assert.Equal(t, 405, status)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.Header.SetMethod("OPTIONS")
	req.Header.Set("Origin", "https://message.style")
	req.Header.Set(requestIDHeader, "req-1")
	req.SetRequestURI("http://embedgen/v1/message")
	require.NoError(t, env.client.Do(req, resp))
	assert.Equal(t, fasthttp.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "https://message.style", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, "req-1", string(resp.Header.Peek(requestIDHeader)))
}

func TestLimiterSweep(t *testing.T) {
	mock := clock.NewMock()
	p := newLimiterPool(10, 1, mock)
	defer p.Shutdown()

	assert.True(t, p.Allow("a"))
	assert.True(t, p.Allow("b"))
	assert.Equal(t, 2, p.size())

	mock.Add(limiterTTL + time.Second)
	p.sweep()
	assert.Equal(t, 0, p.size())
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	status, out := env.do(t, "GET", "/healthz", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", out["status"])

	status, _ = env.do(t, "GET", "/readyz", nil)
	assert.Equal(t, 200, status)

	env.do(t, "POST", "/v1/message/ops", OpRequest{Op: "SetContent", Value: json.RawMessage(`"m"`)})

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://embedgen/metrics")
	require.NoError(t, env.client.Do(req, resp))
	assert.Equal(t, 200, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `embedgen_mutations_total{op="SetContent"}`)
}
