package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// probeQuery is evaluated by the guardrail to prove its rules compile and allow reads.
const probeQuery = "SELECT 1"

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Guard          ports.SQLGuard
	Catalog        ports.Catalog
	History        ports.HistoryRepository
	Credentials    ports.CredentialChecker
}

// Run executes checks and returns a report. The error is non-nil only when
// the config itself cannot be loaded; failed checks are reported in the report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded %s", cfg.ConfigFormatVersion)))

	checks = append(checks, s.guardCheck(cfg))
	checks = append(checks, s.catalogCheck(ctx, cfg))
	checks = append(checks, s.sinkCheck(cfg))
	checks = append(checks, s.modelCheck(cfg))
	checks = append(checks, authCheck(cfg))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) guardCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.Security.Enabled {
		return warn("Guardrail", "disabled; every statement reaches the catalog")
	}
	if s.Guard == nil {
		return warn("Guardrail", "guardrail not initialized")
	}
	assessment, err := s.Guard.Evaluate(probeQuery)
	if err != nil {
		return fail("Guardrail", err.Error())
	}
	if assessment.Blocked() {
		return fail("Guardrail", "rules block plain SELECT statements")
	}
	return ok("Guardrail", "rules loaded")
}

func (s *Service) catalogCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if s.Catalog == nil {
		return fail("Catalog", "catalog not initialized")
	}
	tables, err := s.Catalog.ListTables(ctx)
	if err != nil {
		return fail("Catalog", fmt.Sprintf("%s unreachable: %v", cfg.Catalog.Driver, err))
	}
	if len(tables) == 0 {
		return warn("Catalog", fmt.Sprintf("%s reachable but none of the desired tables exist", s.Catalog.Dialect()))
	}
	return ok("Catalog", fmt.Sprintf("%s: %d tables visible (%s)", s.Catalog.Dialect(), len(tables), strings.Join(tables, ", ")))
}

func (s *Service) sinkCheck(cfg domain.Config) domain.HealthCheck {
	if s.History == nil {
		return warn("Query records", "no sink configured; answers are not recorded")
	}
	if cfg.Sink.Driver == domain.SinkDriverDynamoDB && cfg.Sink.Table == "" {
		return fail("Query records", "dynamodb sink requires sink.table")
	}
	return ok("Query records", s.History.Location())
}

func (s *Service) modelCheck(cfg domain.Config) domain.HealthCheck {
	model, err := cfg.ActiveModel()
	if err != nil {
		return fail("Model", err.Error())
	}
	if s.Credentials != nil && !s.Credentials.HasCredentials(model) {
		return warn("Model", fmt.Sprintf("%s (%s): API key missing", model.Name, model.Provider))
	}
	return ok("Model", fmt.Sprintf("%s via %s", model.ModelID, model.Provider))
}

func authCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.RequiresAuthentication() {
		return warn("Login", "auth driver none; any username is accepted")
	}
	if cfg.Auth.ClientID == "" {
		return fail("Login", "cognito client_id is not set")
	}
	return ok("Login", "cognito client "+cfg.Auth.ClientID)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
