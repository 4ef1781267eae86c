package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// Tool names exposed by the remote endpoints.
const (
	ToolSearchCatalog  = "search_shop_catalog"
	ToolCreateOrder    = "create_order"
	ToolGetOrderStatus = "get_order_status"
)

const (
	clientName    = "intent-router"
	clientVersion = "1.0.0"
	// maxErrorDetail bounds capability-reported messages carried into errors.
	maxErrorDetail = 200
)

// Caller invokes a named remote capability with structured arguments.
type Caller interface {
	Call(ctx context.Context, call model.ToolCall) (*model.ToolResult, error)
}

// CapabilityOf returns the user-facing feature area served by an endpoint.
func CapabilityOf(e model.Endpoint) string {
	switch e {
	case model.EndpointProductSearch:
		return "product search"
	case model.EndpointOrders:
		return "order service"
	default:
		return string(e)
	}
}

type ClientConfig struct {
	Endpoints map[model.Endpoint]string
	Timeout   time.Duration
	Metrics   *metrics.Recorder
}

// MCPClient calls tools over MCP streamable HTTP. One initialised session per
// endpoint is shared by all runs; a transport failure drops the session so the
// next call reconnects.
type MCPClient struct {
	cfg ClientConfig

	mu       sync.Mutex
	sessions map[model.Endpoint]*client.Client
}

func NewMCPClient(cfg ClientConfig) *MCPClient {
	return &MCPClient{
		cfg:      cfg,
		sessions: make(map[model.Endpoint]*client.Client),
	}
}

// Call performs one bounded tool call. It never retries.
func (c *MCPClient) Call(ctx context.Context, call model.ToolCall) (*model.ToolResult, error) {
	capability := CapabilityOf(call.Endpoint)
	url, ok := c.cfg.Endpoints[call.Endpoint]
	if !ok || url == "" {
		return nil, errx.Precondition(capability, fmt.Sprintf("no url configured for endpoint %q", call.Endpoint))
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.call(ctx, call, url)
	status := "ok"
	if err != nil {
		status = string(errx.KindOf(err))
	}
	c.cfg.Metrics.ToolCall(string(call.Endpoint), call.Name, status)

	ev := logx.Debug()
	if err != nil {
		ev = logx.Warn().Err(err)
	}
	ev.Str("endpoint", string(call.Endpoint)).
		Str("tool", call.Name).
		Dur("elapsed", time.Since(start)).
		Str("status", status).
		Msg("Tool call finished")

	return res, err
}

func (c *MCPClient) call(ctx context.Context, call model.ToolCall, url string) (*model.ToolResult, error) {
	capability := CapabilityOf(call.Endpoint)

	sess, err := c.session(ctx, call.Endpoint, url)
	if err != nil {
		return nil, errx.Transport(capability, err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = call.Name
	req.Params.Arguments = call.Arguments

	res, err := sess.CallTool(ctx, req)
	if err != nil {
		c.drop(call.Endpoint, sess)
		return nil, errx.Transport(capability, err)
	}
	return decodeResult(capability, res)
}

// session returns the initialised client for an endpoint, connecting on first use.
// The lock is never held across network I/O; concurrent first calls may each
// connect, and the losers close their session.
func (c *MCPClient) session(ctx context.Context, endpoint model.Endpoint, url string) (*client.Client, error) {
	c.mu.Lock()
	sess, ok := c.sessions[endpoint]
	c.mu.Unlock()
	if ok {
		return sess, nil
	}

	sess, err := connect(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cur, ok := c.sessions[endpoint]; ok {
		c.mu.Unlock()
		_ = sess.Close()
		return cur, nil
	}
	c.sessions[endpoint] = sess
	c.mu.Unlock()

	logx.Debug().Str("endpoint", string(endpoint)).Str("url", url).Msg("MCP session initialized")
	return sess, nil
}

func connect(ctx context.Context, url string) (*client.Client, error) {
	sess, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}
	if err := sess.Start(ctx); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	if _, err := sess.Initialize(ctx, initReq); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	return sess, nil
}

func (c *MCPClient) drop(endpoint model.Endpoint, sess *client.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.sessions[endpoint]; ok && cur == sess {
		delete(c.sessions, endpoint)
		_ = sess.Close()
	}
}

// Close releases every open session.
func (c *MCPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for endpoint, sess := range c.sessions {
		if err := sess.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.sessions, endpoint)
	}
	return errors.Join(errs...)
}

// decodeResult turns MCP tool output into a structured payload. The first text
// content must hold a JSON object or list; an object with an "error" key, or a
// result flagged as error, is a capability-reported failure.
func decodeResult(capability string, res *mcp.CallToolResult) (*model.ToolResult, error) {
	if res == nil {
		return nil, errx.Malformed(capability, errors.New("nil tool result"))
	}

	text, ok := firstText(res.Content)
	if res.IsError {
		if !ok {
			text = "tool reported an error"
		}
		return nil, errx.Capability(capability, truncate(text))
	}
	if !ok {
		return nil, errx.Malformed(capability, errors.New("tool result has no text content"))
	}

	var payload any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, errx.Malformed(capability, fmt.Errorf("decode tool payload: %w", err))
	}

	switch p := payload.(type) {
	case map[string]any:
		if msg, failed := p["error"]; failed && msg != nil {
			return nil, errx.Capability(capability, truncate(fmt.Sprint(msg)))
		}
	case []any:
	default:
		return nil, errx.Malformed(capability, fmt.Errorf("unexpected payload type %T", payload))
	}
	return &model.ToolResult{Payload: payload}, nil
}

func firstText(contents []mcp.Content) (string, bool) {
	for _, c := range contents {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text, true
		case *mcp.TextContent:
			return tc.Text, true
		}
	}
	return "", false
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrorDetail {
		return s
	}
	n := maxErrorDetail
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var _ Caller = (*MCPClient)(nil)
