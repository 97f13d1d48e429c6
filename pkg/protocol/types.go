package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Symbolic error kinds carried in the error envelope's code field.
// The wire format uses these strings rather than JSON-RPC integer codes.
const (
	KindParseError     = "PARSE_ERROR"
	KindMalformed      = "MALFORMED_ENVELOPE"
	KindMethodNotFound = "METHOD_NOT_FOUND"
	KindInvalidParams  = "INVALID_PARAMS"
	KindToolNotFound   = "TOOL_NOT_FOUND"
	KindInternalError  = "INTERNAL_ERROR"
)

var ErrMalformedEnvelope = errors.New("malformed JSON-RPC envelope")

type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  Params      `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Params holds the request's params member in whichever of its three legal
// shapes the client sent: an object, an array, or nothing at all. The raw
// bytes are kept so handlers receive exactly what was on the wire.
type Params struct {
	raw json.RawMessage
}

// ObjectParams builds object-shaped params from m. Values must be JSON
// marshalable; a value that cannot be marshaled degrades to absent params.
func ObjectParams(m map[string]interface{}) Params {
	data, err := json.Marshal(m)
	if err != nil {
		return Params{}
	}
	return Params{raw: data}
}

// ListParams builds array-shaped params from l. Values must be JSON
// marshalable; a value that cannot be marshaled degrades to absent params.
func ListParams(l []interface{}) Params {
	data, err := json.Marshal(l)
	if err != nil {
		return Params{}
	}
	return Params{raw: data}
}

func (p *Params) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		p.raw = nil
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		p.raw = append(json.RawMessage(nil), trimmed...)
		return nil
	}
	return fmt.Errorf("%w: params must be an object or array", ErrMalformedEnvelope)
}

func (p Params) MarshalJSON() ([]byte, error) {
	if p.raw == nil {
		return []byte("null"), nil
	}
	return p.raw, nil
}

func (p Params) IsAbsent() bool {
	return p.raw == nil
}

// Object returns the params as a map when the client sent an object shape.
func (p Params) Object() (map[string]interface{}, bool) {
	if p.raw == nil || p.raw[0] != '{' {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(p.raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// List returns the params as a slice when the client sent an array shape.
func (p Params) List() ([]interface{}, bool) {
	if p.raw == nil || p.raw[0] != '[' {
		return nil, false
	}
	var l []interface{}
	if err := json.Unmarshal(p.raw, &l); err != nil {
		return nil, false
	}
	return l, true
}

func (p Params) Raw() json.RawMessage {
	return p.raw
}

// DecodeRequest parses raw bytes into a request envelope, enforcing the
// minimal shape: method present and a string, params object/array/absent.
func DecodeRequest(raw []byte) (*Request, error) {
	var probe struct {
		Method json.RawMessage `json:"method"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}

	var method string
	if probe.Method == nil || json.Unmarshal(probe.Method, &method) != nil || method == "" {
		return nil, fmt.Errorf("%w: method is required and must be a string", ErrMalformedEnvelope)
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func NewSuccessResponse(result interface{}, id interface{}) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func NewErrorResponse(kind, message string, id interface{}, data interface{}) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    kind,
			Message: message,
			Data:    data,
		},
	}
}

type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}
