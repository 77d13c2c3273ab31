package domain_test

import (
	"testing"

	"github.com/doeshing/sqlchat/internal/domain"
)

func TestHealthReportFailures(t *testing.T) {
	report := domain.HealthReport{Checks: []domain.HealthCheck{
		{Name: "Config file", Status: domain.HealthOK},
		{Name: "Catalog", Status: domain.HealthError},
		{Name: "Query records", Status: domain.HealthWarn},
		{Name: "Model", Status: domain.HealthError},
	}}
	if got := report.Failures(); got != 2 {
		t.Fatalf("Failures = %d, want 2", got)
	}
	if got := (domain.HealthReport{}).Failures(); got != 0 {
		t.Fatalf("empty report Failures = %d, want 0", got)
	}
}
