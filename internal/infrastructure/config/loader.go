package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/sqlchat/assets"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/pkg/filesystem"
	"github.com/doeshing/sqlchat/internal/ports"
)

// Environment variables that override the config file. Deployments set these
// instead of shipping a file.
const (
	EnvConfigPath     = "SQLCHAT_CONFIG"
	EnvAddr           = "SQLCHAT_ADDR"
	EnvClientID       = "CLIENT_ID"
	EnvUserPoolID     = "COGNITO_USER_POOL_ID"
	EnvRegion         = "AWS_REGION"
	EnvAuthDriver     = "SQLCHAT_AUTH_DRIVER"
	EnvCatalogDriver  = "SQLCHAT_CATALOG_DRIVER"
	EnvOutputLocation = "SQLCHAT_ATHENA_OUTPUT"
	EnvSinkDriver     = "SQLCHAT_SINK_DRIVER"
	EnvSinkTable      = "SQLCHAT_SINK_TABLE"
	EnvModel          = "SQLCHAT_MODEL"
	EnvDesiredTables  = "SQLCHAT_TABLES"
)

// FileLoader loads YAML configuration from ~/.sqlchat/config.yaml (overridable via SQLCHAT_CONFIG).
type FileLoader struct {
	overridePath string
	lookupEnv    func(string) (string, bool)
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path, lookupEnv: os.LookupEnv}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg := DefaultConfig()
		// Read-only filesystems (containers, lambdas) still get defaults.
		_ = writeConfig(path, cfg)
		return l.applyEnv(cfg), nil
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return l.applyEnv(hydrateDefaults(cfg)), nil
}

// Path returns the resolved config file location.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom, ok := l.env(EnvConfigPath); ok && custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

// Save writes cfg to the config file.
func (l *FileLoader) Save(cfg domain.Config) error {
	return writeConfig(l.Path(), cfg)
}

// Reset overwrites the config file with defaults.
func (l *FileLoader) Reset() (domain.Config, error) {
	cfg := DefaultConfig()
	if err := writeConfig(l.Path(), cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func (l *FileLoader) env(key string) (string, bool) {
	if l.lookupEnv == nil {
		return os.LookupEnv(key)
	}
	return l.lookupEnv(key)
}

func (l *FileLoader) applyEnv(cfg domain.Config) domain.Config {
	set := func(key string, dst *string) {
		if v, ok := l.env(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvAddr, &cfg.Server.Addr)
	set(EnvClientID, &cfg.Auth.ClientID)
	set(EnvUserPoolID, &cfg.Auth.UserPoolID)
	set(EnvAuthDriver, &cfg.Auth.Driver)
	set(EnvCatalogDriver, &cfg.Catalog.Driver)
	set(EnvOutputLocation, &cfg.Catalog.OutputLocation)
	set(EnvSinkDriver, &cfg.Sink.Driver)
	set(EnvSinkTable, &cfg.Sink.Table)
	set(EnvModel, &cfg.Agent.Model)
	if region, ok := l.env(EnvRegion); ok && region != "" {
		cfg.Auth.Region = region
		cfg.Catalog.Region = region
		cfg.Sink.Region = region
	}
	if tables, ok := l.env(EnvDesiredTables); ok && tables != "" {
		cfg.Catalog.DesiredTables = splitList(tables)
	}
	return cfg
}

func writeConfig(path string, cfg domain.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return hydrateDefaults(cfg)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.SessionCookie == "" {
		cfg.Server.SessionCookie = "sqlchat_session"
	}
	if cfg.Auth.Driver == "" {
		cfg.Auth.Driver = domain.AuthDriverCognito
	}
	if cfg.Catalog.Driver == "" {
		cfg.Catalog.Driver = domain.CatalogDriverAthena
	}
	if cfg.Catalog.Workgroup == "" {
		cfg.Catalog.Workgroup = "primary"
	}
	if cfg.Catalog.SampleRows == 0 {
		cfg.Catalog.SampleRows = domain.DefaultSampleRows
	}
	if cfg.Agent.MaxIterations == 0 {
		cfg.Agent.MaxIterations = domain.DefaultMaxIterations
	}
	if cfg.Agent.QuestionSuffix == "" {
		cfg.Agent.QuestionSuffix = domain.DefaultQuestionSuffix
	}
	if cfg.Agent.Model == "" && len(cfg.Models) > 0 {
		cfg.Agent.Model = cfg.Models[0].Name
	}
	for i := range cfg.Models {
		if cfg.Models[i].Provider == "" {
			cfg.Models[i].Provider = domain.ProviderBedrock
		}
		if cfg.Models[i].TopP == 0 {
			cfg.Models[i].TopP = 1
		}
	}
	if cfg.Sink.Driver == "" {
		cfg.Sink.Driver = domain.SinkDriverDynamoDB
	}
	if cfg.Conversation.MaxEntries == 0 {
		cfg.Conversation.MaxEntries = domain.DefaultConversationLimit
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
