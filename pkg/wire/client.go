package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
)

// Backend is the remote service that sends, restores, saves and schedules
// messages.
type Backend interface {
	SendMessage(ctx context.Context, req *SendRequest) (*SendResponse, error)
	RestoreFromChannel(ctx context.Context, req *RestoreChannelRequest) (*RestoreResponse, error)
	RestoreFromWebhook(ctx context.Context, req *RestoreWebhookRequest) (*RestoreResponse, error)
	CreateSavedMessage(ctx context.Context, req *SaveMessageRequest) (*SavedMessage, error)
	UpdateSavedMessage(ctx context.Context, id string, req *SaveMessageRequest) (*SavedMessage, error)
	GetSavedMessage(ctx context.Context, id string) (*SavedMessage, error)
	ScheduleMessage(ctx context.Context, req *ScheduledMessageRequest) (*ScheduledMessage, error)
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend returned %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

type ClientOptions struct {
	BaseURL string
	Token   string
	// Timeout applies when the context has no deadline.
	Timeout time.Duration
	// Dial overrides how connections are made, for tests.
	Dial fasthttp.DialFunc
	Gen  *ids.Generator
}

// Client talks to the backend over HTTP.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	token   string
	timeout time.Duration
	gen     *ids.Generator
}

var _ Backend = (*Client)(nil)

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Gen == nil {
		opts.Gen = ids.New()
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "embedgen",
			Dial:                opts.Dial,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		timeout: opts.Timeout,
		gen:     opts.Gen,
	}
}

// do sends body to path and returns the data of the success envelope.
func (c *Client) do(ctx context.Context, method, endpoint, path string, body any) (json.RawMessage, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(data)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		telemetry.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		logger.Warn("backend_request_failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	status := resp.StatusCode()
	telemetry.BackendRequests.WithLabelValues(endpoint, strconv.Itoa(status/100)+"xx").Inc()

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if status >= 300 {
			return nil, &APIError{Status: status, Message: strings.TrimSpace(string(resp.Body()))}
		}
		return nil, fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	if status >= 300 || !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Message: fasthttp.StatusMessage(status)}
		}
		apiErr.Status = status
		return nil, apiErr
	}
	// Data is reused by the pooled response, keep a copy.
	return append(json.RawMessage(nil), env.Data...), nil
}

func decodeData[T any](endpoint string, data json.RawMessage) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: decode data: %w", endpoint, err)
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	path := "/api/send-message/webhook"
	if req.Mode == models.SendModeChannel {
		path = "/api/send-message/channel"
	}
	data, err := c.do(ctx, fasthttp.MethodPost, "send_message", path, req)
	if err != nil {
		return nil, err
	}
	return decodeData[SendResponse]("send_message", data)
}

func (c *Client) RestoreFromChannel(ctx context.Context, req *RestoreChannelRequest) (*RestoreResponse, error) {
	data, err := c.do(ctx, fasthttp.MethodPost, "restore_channel", "/api/restore-message/channel", req)
	if err != nil {
		return nil, err
	}
	return DecodeRestore(data, c.gen)
}

func (c *Client) RestoreFromWebhook(ctx context.Context, req *RestoreWebhookRequest) (*RestoreResponse, error) {
	data, err := c.do(ctx, fasthttp.MethodPost, "restore_webhook", "/api/restore-message/webhook", req)
	if err != nil {
		return nil, err
	}
	return DecodeRestore(data, c.gen)
}

func (c *Client) CreateSavedMessage(ctx context.Context, req *SaveMessageRequest) (*SavedMessage, error) {
	data, err := c.do(ctx, fasthttp.MethodPost, "create_saved_message", "/api/saved-messages", req)
	if err != nil {
		return nil, err
	}
	return DecodeSavedMessage(data, c.gen)
}

func (c *Client) UpdateSavedMessage(ctx context.Context, id string, req *SaveMessageRequest) (*SavedMessage, error) {
	data, err := c.do(ctx, fasthttp.MethodPut, "update_saved_message", "/api/saved-messages/"+id, req)
	if err != nil {
		return nil, err
	}
	return DecodeSavedMessage(data, c.gen)
}

func (c *Client) GetSavedMessage(ctx context.Context, id string) (*SavedMessage, error) {
	data, err := c.do(ctx, fasthttp.MethodGet, "get_saved_message", "/api/saved-messages/"+id, nil)
	if err != nil {
		return nil, err
	}
	return DecodeSavedMessage(data, c.gen)
}

// ScheduleMessage validates the schedule locally before sending it.
func (c *Client) ScheduleMessage(ctx context.Context, req *ScheduledMessageRequest) (*ScheduledMessage, error) {
	if _, err := req.Validate(time.Now()); err != nil {
		return nil, err
	}
	path := "/api/guilds/" + req.GuildID.String() + "/scheduled-messages"
	data, err := c.do(ctx, fasthttp.MethodPost, "schedule_message", path, req)
	if err != nil {
		return nil, err
	}
	return decodeData[ScheduledMessage]("schedule_message", data)
}
