package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Conversation constants
const (
	// DefaultConversationLimit is the number of transcript entries kept per session
	DefaultConversationLimit = 4
	// DefaultQuestionSuffix is appended to every question before it reaches the agent
	DefaultQuestionSuffix = ". Based on the input prompt, please display all requested attributes and provide a comprehensive and detailed response. Avoid giving brief or incomplete answers. Always provide the explanation and assumptions that you have made to come up with the output. Do not include technical details about how the answer was derived."
)

// Agent constants
const (
	// QueryToolName is the tool whose input is the executed SQL
	QueryToolName = "sql_db_query"
	// ListTablesToolName lists the tables the agent may use
	ListTablesToolName = "sql_db_list_tables"
	// SchemaToolName describes tables
	SchemaToolName = "sql_db_schema"
	// QueryCheckerToolName double-checks a query before execution
	QueryCheckerToolName = "sql_db_query_checker"
	// NoSQLFound is reported when neither the trace nor the recorder saw a query
	NoSQLFound = "No SQL query found"
	// DefaultMaxIterations bounds the agent loop
	DefaultMaxIterations = 15
)

// Catalog constants
const (
	// DefaultPollInterval is how often a running query's status is checked
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultSampleRows is how many rows the schema tool shows per table
	DefaultSampleRows = 3
)

// Driver names
const (
	AuthDriverCognito = "cognito"
	AuthDriverNone    = "none"

	CatalogDriverAthena = "athena"
	CatalogDriverSQLite = "sqlite"

	SinkDriverDynamoDB = "dynamodb"
	SinkDriverSQLite   = "sqlite"
	SinkDriverFile     = "file"
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
