package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/embedmcp/embed-mcp/internal/tools"
	"github.com/embedmcp/embed-mcp/pkg/protocol"
)

type Server struct {
	registry *tools.Registry
	handler  *Handler
}

func NewServer(registry *tools.Registry) *Server {
	return &Server{
		registry: registry,
		handler:  NewHandler(registry),
	}
}

func (s *Server) HandleRequest(req *Request) *Response {
	return s.handler.Handle(req)
}

func (s *Server) Handler() *Handler {
	return s.handler
}

func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// maxLineBytes caps a single request line well above bufio's 64KiB default,
// which would otherwise kill the whole serving loop on one large request.
const maxLineBytes = 4 * 1024 * 1024

// ProcessStream serves line-delimited JSON-RPC over reader/writer until EOF.
// Requests that cannot be decoded yield an error envelope with a null id and
// the loop continues.
func (s *Server) ProcessStream(reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(writer)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		req, err := protocol.DecodeRequest(line)
		if err != nil {
			kind := protocol.KindParseError
			if errors.Is(err, protocol.ErrMalformedEnvelope) {
				kind = protocol.KindMalformed
			}
			resp := protocol.NewErrorResponse(kind, fmt.Sprintf("Parse error: %v", err), nil, nil)
			if encodeErr := encoder.Encode(resp); encodeErr != nil {
				return encodeErr
			}
			continue
		}

		resp := s.HandleRequest(req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}
