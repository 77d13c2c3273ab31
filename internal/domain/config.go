package domain

// Config mirrors ~/.sqlchat/config.yaml.
type Config struct {
	ConfigFormatVersion string               `yaml:"config_format_version" json:"config_format_version"`
	Server              ServerSettings       `yaml:"server" json:"server"`
	Auth                AuthSettings         `yaml:"auth" json:"auth"`
	Catalog             CatalogSettings      `yaml:"catalog" json:"catalog"`
	Agent               AgentSettings        `yaml:"agent" json:"agent"`
	Models              []ModelDefinition    `yaml:"models" json:"models" validate:"min=1,dive"`
	Sink                SinkSettings         `yaml:"sink" json:"sink"`
	Security            SecuritySettings     `yaml:"security" json:"security"`
	Conversation        ConversationSettings `yaml:"conversation" json:"conversation"`
}

// ServerSettings configures the chat web UI.
type ServerSettings struct {
	Addr          string `yaml:"addr" json:"addr" validate:"required"`
	SessionCookie string `yaml:"session_cookie" json:"session_cookie" validate:"required"`
	SecureCookie  bool   `yaml:"secure_cookie" json:"secure_cookie"`
}

// AuthSettings selects the identity provider used by the login page.
type AuthSettings struct {
	Driver     string `yaml:"driver" json:"driver" validate:"oneof=cognito none"`
	Region     string `yaml:"region" json:"region"`
	ClientID   string `yaml:"client_id" json:"client_id"`
	UserPoolID string `yaml:"user_pool_id" json:"user_pool_id"`
}

// CatalogSettings describes where questions are answered from.
type CatalogSettings struct {
	Driver         string   `yaml:"driver" json:"driver" validate:"oneof=athena sqlite"`
	Region         string   `yaml:"region" json:"region"`
	Database       string   `yaml:"database" json:"database"`
	Workgroup      string   `yaml:"workgroup" json:"workgroup"`
	OutputLocation string   `yaml:"output_location" json:"output_location"`
	SQLitePath     string   `yaml:"sqlite_path" json:"sqlite_path"`
	DesiredTables  []string `yaml:"desired_tables" json:"desired_tables"`
	SampleRows     int      `yaml:"sample_rows" json:"sample_rows" validate:"gte=0"`
	PollInterval   string   `yaml:"poll_interval" json:"poll_interval"`
}

// AgentSettings tunes the SQL agent loop.
type AgentSettings struct {
	Model          string `yaml:"model" json:"model"`
	MaxIterations  int    `yaml:"max_iterations" json:"max_iterations" validate:"gt=0"`
	SystemPrompt   string `yaml:"system_prompt" json:"system_prompt"`
	QuestionSuffix string `yaml:"question_suffix" json:"question_suffix"`
	TimeoutSeconds int    `yaml:"timeout" json:"timeout" validate:"gte=0"`
}

// SinkSettings selects where query records are written.
type SinkSettings struct {
	Driver string `yaml:"driver" json:"driver" validate:"oneof=dynamodb sqlite file"`
	Region string `yaml:"region" json:"region"`
	Table  string `yaml:"table" json:"table"`
	Path   string `yaml:"path" json:"path"`
}

// SecuritySettings defines the SQL guardrail.
type SecuritySettings struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	RulesFile string `yaml:"rules_file" json:"rules_file"`
}

// ConversationSettings bounds the per-session transcript.
type ConversationSettings struct {
	MaxEntries int `yaml:"max_entries" json:"max_entries" validate:"gte=0"`
}
