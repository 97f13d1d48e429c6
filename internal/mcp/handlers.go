package mcp

import (
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/embedmcp/embed-mcp/internal/logger"
	"github.com/embedmcp/embed-mcp/internal/querylog"
	"github.com/embedmcp/embed-mcp/internal/tools"
	"github.com/embedmcp/embed-mcp/pkg/protocol"
	"github.com/embedmcp/embed-mcp/pkg/version"
)

var log = logger.ForComponent("mcp")

// QueryRecorder receives a record of every executed tool call. Implemented
// by querylog.Store; a nil recorder disables logging.
type QueryRecorder interface {
	Record(entry querylog.Entry)
}

type Handler struct {
	registry  *tools.Registry
	recorder  QueryRecorder
	startTime time.Time

	// Session state is written during initialize handshakes while other
	// requests dispatch concurrently, so it needs the lock.
	mu          sync.Mutex
	initialized bool
	clientInfo  ClientInfo
}

func NewHandler(registry *tools.Registry) *Handler {
	return &Handler{
		registry:  registry,
		startTime: time.Now(),
	}
}

// SetRecorder attaches a query recorder. Must be called before traffic
// begins; the handler does not guard concurrent mutation.
func (h *Handler) SetRecorder(recorder QueryRecorder) {
	h.recorder = recorder
}

// Handle routes one request to its method handler and wraps the outcome in
// a response envelope. Nothing escapes: a panicking or failing handler
// becomes an INTERNAL_ERROR envelope with the request id preserved.
func (h *Handler) Handle(req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic recovered",
				"method", req.Method,
				"panic", r,
				"stack", string(debug.Stack()))
			resp = protocol.NewErrorResponse(protocol.KindInternalError,
				fmt.Sprintf("Internal error: %v", r), req.ID, nil)
		}
	}()

	log.Debug("handling request", "method", req.Method)

	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result, err = h.handleInitialize(req)
	case "notifications/initialized":
		result = h.handleInitializedNotification()
	case "time":
		result = h.handleTime()
	case "tools/list":
		result = h.handleListTools()
	case "tools/call":
		result, err = h.handleCallTool(req)
	default:
		return protocol.NewErrorResponse(protocol.KindMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method), req.ID, nil)
	}

	if err != nil {
		return errorResponse(req, err)
	}
	return protocol.NewSuccessResponse(result, req.ID)
}

// errorResponse maps handler failures onto symbolic error kinds. Tool and
// params failures keep their own kind; anything else is internal.
func errorResponse(req *Request, err error) *Response {
	var toolErr *tools.ToolError
	if errors.As(err, &toolErr) {
		log.Warn("request failed", "method", req.Method, "kind", toolErr.Kind, "error", toolErr.Message)
		return protocol.NewErrorResponse(toolErr.Kind, toolErr.Message, req.ID, nil)
	}

	var rpcErr *protocol.JSONRPCError
	if errors.As(err, &rpcErr) {
		log.Warn("request failed", "method", req.Method, "kind", rpcErr.Code, "error", rpcErr.Message)
		return protocol.NewErrorResponse(rpcErr.Code, rpcErr.Message, req.ID, rpcErr.Data)
	}

	log.Error("request failed", "method", req.Method, "error", err)
	return protocol.NewErrorResponse(protocol.KindInternalError,
		fmt.Sprintf("Internal error: %v", err), req.ID, nil)
}

func (h *Handler) handleInitialize(req *Request) (interface{}, error) {
	clientVersion := ""
	if params, ok := req.Params.Object(); ok {
		if v, ok := params["protocolVersion"].(string); ok {
			clientVersion = v
		}
		if info, ok := params["clientInfo"].(map[string]interface{}); ok {
			var client ClientInfo
			client.Name, _ = info["name"].(string)
			client.Version, _ = info["version"].(string)

			h.mu.Lock()
			h.clientInfo = client
			h.mu.Unlock()
		}
	}

	return &InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(clientVersion),
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{
				"listChanged": false,
			},
			"prompts": map[string]interface{}{
				"listChanged": false,
			},
			"resources": map[string]interface{}{
				"subscribe":   false,
				"listChanged": false,
			},
			"logging": map[string]interface{}{},
		},
		ServerInfo: ServerInfo{
			Name:    "embed-mcp",
			Version: version.Version,
		},
		Instructions: "MCP Server initialized successfully",
	}, nil
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}
	return version.ProtocolVersion
}

// handleInitializedNotification acknowledges the client's initialized
// notification. The protocol defines this as fire-and-forget, but a response
// is returned anyway so every request yields exactly one envelope.
func (h *Handler) handleInitializedNotification() interface{} {
	h.mu.Lock()
	h.initialized = true
	clientName := h.clientInfo.Name
	h.mu.Unlock()

	log.Info("client initialization completed", "client", clientName)
	return map[string]interface{}{
		"status":  "acknowledged",
		"message": "Server ready for requests",
	}
}

// Initialized reports whether the client has completed the initialize
// handshake.
func (h *Handler) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

func (h *Handler) handleTime() interface{} {
	return newTimeResult(time.Now().UTC())
}

func newTimeResult(now time.Time) *TimeResult {
	floatSeconds := float64(now.Unix()) + float64(now.Nanosecond())/1e9

	// Rounding can push the float onto the next whole second when the
	// fraction is within half a ULP of 1.0, so the integer timestamp is
	// derived from the float to stay equal to its floor.
	unixSeconds := int64(math.Floor(floatSeconds))

	return &TimeResult{
		Method: "time",
		ServerTime: ServerTime{
			ISOFormat:     now.Format("2006-01-02T15:04:05.999999-07:00"),
			Timestamp:     floatSeconds,
			UnixTimestamp: unixSeconds,
			Formatted:     now.Format("2006-01-02 15:04:05") + " UTC",
			Timezone:      "UTC",
		},
		Message: "Time retrieved successfully",
	}
}

func (h *Handler) handleListTools() interface{} {
	return &ListToolsResult{Tools: h.registry.List()}
}

func (h *Handler) handleCallTool(req *Request) (interface{}, error) {
	log.Info("handling 'tools/call' method")

	params, ok := req.Params.Object()
	if !ok {
		return nil, &protocol.JSONRPCError{
			Code:    protocol.KindInvalidParams,
			Message: "Invalid parameters for tools/call",
		}
	}

	toolName, _ := params["name"].(string)
	if toolName == "" {
		return nil, &protocol.JSONRPCError{
			Code:    protocol.KindInvalidParams,
			Message: "Tool name is required",
		}
	}

	arguments, ok := params["arguments"].(map[string]interface{})
	if !ok {
		arguments = map[string]interface{}{}
	}

	start := time.Now()
	result, err := h.registry.Execute(toolName, arguments)
	h.record(toolName, arguments, result, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *Handler) record(toolName string, arguments map[string]interface{}, result interface{}, elapsed time.Duration, err error) {
	if h.recorder == nil {
		return
	}

	entry := querylog.Entry{
		ToolName:        toolName,
		Input:           arguments,
		Output:          result,
		ExecutionTimeMS: elapsed.Milliseconds(),
		Success:         err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	h.recorder.Record(entry)
}
