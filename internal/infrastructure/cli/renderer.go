package cli

import (
	"fmt"
	"io"

	"github.com/doeshing/sqlchat/internal/domain"
)

// RenderTurn prints a finished turn in plain ASCII.
func RenderTurn(out io.Writer, result domain.TurnResult) {
	if result.Notice != "" {
		fmt.Fprintln(out, result.Notice)
		return
	}
	if !result.Answered() {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "SQL (%s):\n", result.SQLSource)
	fmt.Fprintf(out, "  %s\n", result.SQL)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Answer:")
	fmt.Fprintln(out, result.Answer)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Time: %s  (query id %s)\n", result.ElapsedClock(), result.Record.ID)
}
