package tools

import "encoding/json"

// EchoTool is the reference tool used to validate the dispatch contract.
type EchoTool struct{}

func NewEchoTool() *EchoTool {
	return &EchoTool{}
}

func (t *EchoTool) Name() string {
	return "echo"
}

func (t *EchoTool) Description() string {
	return "Echoes back the provided message."
}

func (t *EchoTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"message": {
				"type": "string",
				"description": "Message to echo back"
			}
		},
		"required": ["message"]
	}`)
}

// Execute returns the message as a single text content block. A missing
// message is treated as empty rather than an error.
func (t *EchoTool) Execute(arguments map[string]interface{}) (interface{}, error) {
	message, _ := arguments["message"].(string)
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": message,
			},
		},
	}, nil
}
