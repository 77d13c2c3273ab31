package config

import (
	"strings"
	"testing"

	"github.com/doeshing/sqlchat/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Server:              domain.ServerSettings{Addr: ":8501", SessionCookie: "sqlchat_session"},
		Auth:                domain.AuthSettings{Driver: "cognito", ClientID: "abc"},
		Catalog: domain.CatalogSettings{
			Driver:         "athena",
			Database:       "db_market_basket_analysis",
			Workgroup:      "primary",
			OutputLocation: "s3://bucket/results/",
		},
		Agent: domain.AgentSettings{Model: "sonnet", MaxIterations: 15},
		Models: []domain.ModelDefinition{{
			Name: "sonnet", Provider: domain.ProviderBedrock, ModelID: "anthropic.claude-3-5-sonnet-20240620-v1:0",
			TopK: 250, TopP: 1,
		}},
		Sink:     domain.SinkSettings{Driver: "dynamodb", Table: "tbl_market_basket_analysis"},
		Security: domain.SecuritySettings{Enabled: true, RulesFile: "~/.sqlchat/guardrail.yaml"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantMsg string
	}{
		{"unknown provider", func(c *domain.Config) { c.Models[0].Provider = "mystery" }, "provider"},
		{"no models", func(c *domain.Config) { c.Models = nil }, "models"},
		{"missing agent model", func(c *domain.Config) { c.Agent.Model = "gone" }, "agent model gone"},
		{"unknown catalog driver", func(c *domain.Config) { c.Catalog.Driver = "postgres" }, "catalog.driver"},
		{"athena without database", func(c *domain.Config) { c.Catalog.Database = "" }, "catalog.database"},
		{"bad output location", func(c *domain.Config) { c.Catalog.OutputLocation = "/tmp" }, "s3://"},
		{"sqlite without path", func(c *domain.Config) { c.Catalog.Driver = "sqlite" }, "sqlite_path"},
		{"dynamodb without table", func(c *domain.Config) { c.Sink.Table = "" }, "sink.table"},
		{"cognito without client", func(c *domain.Config) { c.Auth.ClientID = "" }, "client_id"},
		{"zero iterations", func(c *domain.Config) { c.Agent.MaxIterations = 0 }, "maxiterations"},
		{"top_p above one", func(c *domain.Config) { c.Models[0].TopP = 1.5 }, "topp"},
		{"bad poll interval", func(c *domain.Config) { c.Catalog.PollInterval = "soon" }, "poll_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateAllowsNoneAuthWithoutClient(t *testing.T) {
	cfg := validConfig()
	cfg.Auth = domain.AuthSettings{Driver: "none"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
