package domain

// HealthStatus grades one diagnostic probe of the sqlchat environment.
type HealthStatus string

const (
	HealthOK   HealthStatus = "ok"
	HealthWarn HealthStatus = "warn"
	// HealthError marks a check that prevents answering questions, such as an
	// unreachable catalog or a model without credentials.
	HealthError HealthStatus = "error"
)

// HealthCheck is the outcome of probing one dependency: config, guardrail,
// catalog, query-record sink, model or login provider.
type HealthCheck struct {
	Name    string
	Status  HealthStatus
	Details string
}

// HealthReport lists checks in the order the doctor ran them.
type HealthReport struct {
	Checks []HealthCheck
}

// Failures counts checks with HealthError status.
func (r HealthReport) Failures() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == HealthError {
			n++
		}
	}
	return n
}
