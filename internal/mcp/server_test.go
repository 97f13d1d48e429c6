package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/embedmcp/embed-mcp/internal/tools"
	"github.com/embedmcp/embed-mcp/pkg/protocol"
)

func TestProcessStream(t *testing.T) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewEchoTool()); err != nil {
		t.Fatalf("Failed to register echo tool: %v", err)
	}
	server := NewServer(registry)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","method":"initialize","id":1}`,
		``,
		`not json at all`,
		`{"jsonrpc":"2.0","id":2}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"message":"hello"}},"id":3}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := server.ProcessStream(strings.NewReader(input), &out); err != nil {
		t.Fatalf("ProcessStream failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 responses (blank line skipped), got %d: %v", len(lines), lines)
	}

	var responses []protocol.Response
	for _, line := range lines {
		var resp protocol.Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("Response is not valid JSON: %v (%s)", err, line)
		}
		responses = append(responses, resp)
	}

	if responses[0].Error != nil {
		t.Errorf("initialize should succeed: %+v", responses[0].Error)
	}
	if responses[1].Error == nil || responses[1].Error.Code != protocol.KindParseError {
		t.Errorf("Garbage line should produce %s: %+v", protocol.KindParseError, responses[1].Error)
	}
	if responses[1].ID != nil {
		t.Errorf("Parse error should carry null id, got %v", responses[1].ID)
	}
	if responses[2].Error == nil || responses[2].Error.Code != protocol.KindMalformed {
		t.Errorf("Missing method should produce %s: %+v", protocol.KindMalformed, responses[2].Error)
	}
	if responses[3].Error != nil {
		t.Errorf("Echo call should succeed: %+v", responses[3].Error)
	}
}

func TestProcessStreamLargeRequest(t *testing.T) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewEchoTool()); err != nil {
		t.Fatalf("Failed to register echo tool: %v", err)
	}
	server := NewServer(registry)

	// Well past bufio.Scanner's default 64KiB token limit.
	big := strings.Repeat("x", 128*1024)
	input := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"message":"` + big + `"}},"id":1}` + "\n" +
		`{"jsonrpc":"2.0","method":"time","id":2}` + "\n"

	var out bytes.Buffer
	if err := server.ProcessStream(strings.NewReader(input), &out); err != nil {
		t.Fatalf("ProcessStream should survive a large request line: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(lines))
	}

	var first protocol.Response
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("First response is not valid JSON: %v", err)
	}
	if first.Error != nil {
		t.Errorf("Large echo call should succeed: %+v", first.Error)
	}

	var second protocol.Response
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Second response is not valid JSON: %v", err)
	}
	if second.Error != nil {
		t.Errorf("Loop should keep serving after the large request: %+v", second.Error)
	}
}
