package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/embedmcp/embed-mcp/internal/logger"
	"github.com/embedmcp/embed-mcp/pkg/protocol"
)

var log = logger.ForComponent("tools")

type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(arguments map[string]interface{}) (interface{}, error)
}

type entry struct {
	tool     Tool
	compiled *jsonschema.Schema
}

// Registry maps tool names to handlers. It is populated synchronously at
// startup and treated as read-only once traffic begins; the lock exists so
// that a future runtime registration cannot corrupt concurrent lookups.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]entry
	strict bool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// SetStrict enables argument validation against each tool's input schema
// during Execute. Off by default: tools may accept looser input than their
// advertised schema (echo treats a missing message as empty).
func (r *Registry) SetStrict(strict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strict = strict
}

// Register inserts or overwrites the mapping for the tool's name. The last
// registration for a name wins. The input schema is compiled eagerly so a
// broken descriptor fails at startup rather than on first call.
func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	compiled, err := compileSchema(name, tool.Schema())
	if err != nil {
		return fmt.Errorf("compile schema for tool %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		log.Warn("overwriting registered tool", "tool", name)
	}
	r.tools[name] = entry{tool: tool, compiled: compiled}
	log.Debug("registered tool", "tool", name)
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Execute looks up the named tool and invokes it. In strict mode the
// arguments are checked against the tool's compiled schema first.
func (r *Registry) Execute(name string, arguments map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	strict := r.strict
	r.mu.RUnlock()

	if !ok {
		return nil, NewToolNotFoundError(name)
	}

	if strict && e.compiled != nil {
		if err := validateArguments(e.compiled, arguments); err != nil {
			return nil, NewInvalidArgumentsError(name, err)
		}
	}

	result, err := e.tool.Execute(arguments)
	if err != nil {
		return nil, NewToolExecutionError(name, err)
	}
	return result, nil
}

// List returns static descriptors for discovery; handlers are not invoked.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]protocol.Tool, 0, len(r.tools))
	for _, e := range r.tools {
		var schema map[string]interface{}
		if err := json.Unmarshal(e.tool.Schema(), &schema); err != nil {
			schema = map[string]interface{}{"type": "object"}
		}
		result = append(result, protocol.Tool{
			Name:        e.tool.Name(),
			Description: e.tool.Description(),
			InputSchema: schema,
		})
	}
	return result
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

func compileSchema(name string, schema json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	url := fmt.Sprintf("tool://%s/input-schema.json", name)
	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func validateArguments(schema *jsonschema.Schema, arguments map[string]interface{}) error {
	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	// The validator wants plain interface{} values, which a round trip
	// through encoding/json guarantees.
	data, err := json.Marshal(arguments)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}
