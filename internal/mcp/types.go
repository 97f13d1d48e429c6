package mcp

import "github.com/embedmcp/embed-mcp/pkg/protocol"

type Request = protocol.Request
type Response = protocol.Response
type Tool = protocol.Tool

type ClientInfo struct {
	Name    string
	Version string
}

type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      ServerInfo             `json:"serverInfo"`
	Instructions    string                 `json:"instructions"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type ServerTime struct {
	ISOFormat     string  `json:"iso_format"`
	Timestamp     float64 `json:"timestamp"`
	UnixTimestamp int64   `json:"unix_timestamp"`
	Formatted     string  `json:"formatted"`
	Timezone      string  `json:"timezone"`
}

type TimeResult struct {
	Method     string     `json:"method"`
	ServerTime ServerTime `json:"server_time"`
	Message    string     `json:"message"`
}
