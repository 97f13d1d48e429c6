package tools

import (
	"fmt"

	"github.com/embedmcp/embed-mcp/pkg/protocol"
)

// ToolError carries the symbolic kind the dispatcher should put on the wire
// when a registry operation fails.
type ToolError struct {
	Kind    string
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

func NewToolNotFoundError(name string) *ToolError {
	return &ToolError{
		Kind:    protocol.KindToolNotFound,
		Message: fmt.Sprintf("Unknown tool: %s", name),
	}
}

func NewInvalidArgumentsError(name string, err error) *ToolError {
	return &ToolError{
		Kind:    protocol.KindInvalidParams,
		Message: fmt.Sprintf("Invalid arguments for tool %s: %v", name, err),
	}
}

func NewToolExecutionError(name string, err error) *ToolError {
	return &ToolError{
		Kind:    protocol.KindInternalError,
		Message: fmt.Sprintf("Error executing tool %s: %v", name, err),
	}
}
