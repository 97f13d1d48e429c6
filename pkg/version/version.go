package version

// Version is the server release version reported in serverInfo.
const Version = "1.0.0"

// ProtocolVersion is the MCP revision this server speaks by default.
const ProtocolVersion = "2024-11-05"

// SupportedProtocolVersions lists revisions the server accepts during
// initialize negotiation, newest first.
var SupportedProtocolVersions = []string{
	"2025-03-26",
	"2024-11-05",
}
