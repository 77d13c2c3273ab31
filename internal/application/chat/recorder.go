package chat

import (
	"strings"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// ActionRecorder keeps every query the agent executed and shows it live.
type ActionRecorder struct {
	display ports.StreamDisplay
	log     strings.Builder
}

// NewActionRecorder builds a recorder bound to display. A nil display is allowed.
func NewActionRecorder(display ports.StreamDisplay) *ActionRecorder {
	return &ActionRecorder{display: display}
}

// OnAction records query executions; other tools are ignored.
func (r *ActionRecorder) OnAction(tool, input string) {
	if tool != domain.QueryToolName {
		return
	}
	r.log.WriteString(input)
	r.log.WriteString("\n")
	if r.display != nil {
		r.display.Progress(r.log.String(), domain.StatusSummarizing)
	}
}

// Log returns every recorded query, newline-terminated.
func (r *ActionRecorder) Log() string {
	return r.log.String()
}

// turnObserver fans agent callbacks out to a fresh assembler/recorder pair.
type turnObserver struct {
	assembler *TokenAssembler
	recorder  *ActionRecorder
}

func (o turnObserver) OnToken(fragment string) {
	o.assembler.Append(fragment)
}

func (o turnObserver) OnAction(tool, input string) {
	o.recorder.OnAction(tool, input)
}

var _ ports.TurnObserver = turnObserver{}
