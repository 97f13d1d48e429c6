package querylog

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS mcp_queries (
    id TEXT PRIMARY KEY,
    tool_name TEXT NOT NULL,
    input_data TEXT NOT NULL,
    output_data TEXT NOT NULL,
    execution_time_ms INTEGER,
    success BOOLEAN NOT NULL,
    error_message TEXT,
    created_date DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mcp_queries_tool_name
ON mcp_queries(tool_name);

CREATE INDEX IF NOT EXISTS idx_mcp_queries_created_date
ON mcp_queries(created_date);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`
