package catalog

import (
	"fmt"
	"strings"

	"github.com/doeshing/sqlchat/internal/ports"
)

const defaultMaxRows = 1000

// ErrQueryBlocked is returned when the guardrail refuses a statement.
type ErrQueryBlocked struct {
	Reasons []string
}

func (e *ErrQueryBlocked) Error() string {
	return "query blocked: " + strings.Join(e.Reasons, "; ")
}

func checkGuard(guard ports.SQLGuard, query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("empty query")
	}
	if guard == nil {
		return nil
	}
	assessment, err := guard.Evaluate(query)
	if err != nil {
		return fmt.Errorf("evaluate guardrail: %w", err)
	}
	if assessment.Blocked() {
		return &ErrQueryBlocked{Reasons: assessment.Reasons}
	}
	return nil
}
