package tools

import (
	"encoding/json"
	"time"
)

// HealthTool reports server liveness and uptime.
type HealthTool struct {
	startTime time.Time
}

func NewHealthTool() *HealthTool {
	return &HealthTool{startTime: time.Now()}
}

func (t *HealthTool) Name() string {
	return "health"
}

func (t *HealthTool) Description() string {
	return "Check server health status"
}

func (t *HealthTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *HealthTool) Execute(arguments map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": "healthy",
			},
		},
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(t.startTime).Seconds()),
	}, nil
}
