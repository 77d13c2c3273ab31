package chat

import (
	"strings"

	"github.com/doeshing/sqlchat/internal/domain"
)

// ExtractSQL picks the SQL to report for a turn: the first executed query in
// the trace, then whatever the recorder saw, then a fixed marker.
func ExtractSQL(steps []domain.AgentStep, recorded string) (string, domain.SQLSource) {
	for _, step := range steps {
		if step.Action.Tool != domain.QueryToolName {
			continue
		}
		if strings.TrimSpace(step.Action.ToolInput) == "" {
			continue
		}
		return step.Action.ToolInput, domain.SQLFromTrace
	}
	if strings.TrimSpace(recorded) != "" {
		return recorded, domain.SQLFromRecorder
	}
	return domain.NoSQLFound, domain.SQLNotFound
}
