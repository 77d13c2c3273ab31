// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). Following the Ports and Adapters (Hexagonal) pattern,
// these interfaces allow the application to remain independent of specific
// implementations like the query engine, the identity provider, or the LLM.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Catalog, Agent, RecordSink)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/sqlchat/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.sqlchat/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Authenticator verifies a username/password pair against the identity provider.
// A rejected login is reported as *domain.AuthError carrying the provider's reason.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (token string, err error)
}

// Catalog is the SQL-queryable analytics store the agent works against.
type Catalog interface {
	Dialect() string
	ListTables(ctx context.Context) ([]string, error)
	GetSchema(ctx context.Context, tables []string) (string, error)
	ValidateQuery(ctx context.Context, query string) error
	ExecuteQuery(ctx context.Context, query string) (domain.QueryResult, error)
}

// TurnObserver receives the callbacks of a single agent invocation.
type TurnObserver interface {
	OnToken(fragment string)
	OnAction(tool, input string)
}

// Agent answers a transcript using the catalog's tools.
type Agent interface {
	Invoke(ctx context.Context, input string, observer TurnObserver) (domain.AgentResult, error)
}

// StreamDisplay is the live output area of the chat page. Stream replaces the
// whole visible text on every call.
type StreamDisplay interface {
	Stream(text string)
	Progress(sqlLog, status string)
	Clear()
}

// RecordSink stores one audit record per answered question.
type RecordSink interface {
	Save(ctx context.Context, record domain.QueryRecord) error
}

// HistoryRepository is a RecordSink that can also be read back.
type HistoryRepository interface {
	RecordSink
	Records(ctx context.Context, limit int, search string) ([]domain.QueryRecord, error)
	Location() string
}

// SQLGuard classifies statements before they reach the catalog.
type SQLGuard interface {
	Evaluate(query string) (domain.RiskAssessment, error)
}

// TurnMetrics receives orchestration measurements.
type TurnMetrics interface {
	ObserveTurn(status string, elapsed time.Duration)
	ObserveTokens(n int)
	ObserveSQLSource(source domain.SQLSource)
	ObserveLogin(status string)
}

// CredentialChecker reports whether a model's provider credentials are present.
type CredentialChecker interface {
	HasCredentials(def domain.ModelDefinition) bool
}

// SecretReader fetches a secret's string payload.
type SecretReader interface {
	ReadSecret(ctx context.Context, secretID string) (string, error)
}

// UserRegistrar creates and confirms identity provider users.
type UserRegistrar interface {
	SignUp(ctx context.Context, clientID, username, password string) error
	ConfirmSignUp(ctx context.Context, userPoolID, username string) error
}

// PrefixListFinder resolves a managed prefix list by name.
type PrefixListFinder interface {
	FindPrefixListID(ctx context.Context, name string) (string, error)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
