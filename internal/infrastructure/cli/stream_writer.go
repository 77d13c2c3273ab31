package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/doeshing/sqlchat/internal/ports"
)

// streamWriter renders a turn in a terminal. The display contract replaces
// the whole text on every update; a terminal can only append, so the writer
// prints the new suffix and starts over on a fresh line when the text was
// rewritten.
type streamWriter struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *Spinner
	shown   string
	sqlLog  string
}

// NewStreamWriter builds a terminal display. The spinner goes to status,
// usually stderr, so piped stdout only carries the answer.
func NewStreamWriter(out, status io.Writer) *streamWriter {
	return &streamWriter{out: out, spinner: NewSpinner(status)}
}

// Stream implements ports.StreamDisplay.
func (s *streamWriter) Stream(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	if strings.HasPrefix(text, s.shown) {
		fmt.Fprint(s.out, text[len(s.shown):])
	} else {
		fmt.Fprint(s.out, "\n"+text)
	}
	s.shown = text
}

// Progress implements ports.StreamDisplay.
func (s *streamWriter) Progress(sqlLog, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sqlLog != "" && sqlLog != s.sqlLog {
		s.spinner.Stop()
		if s.shown != "" {
			fmt.Fprintln(s.out)
			s.shown = ""
		}
		fmt.Fprintf(s.out, "SQL> %s\n", strings.TrimSpace(sqlLog[len(commonPrefix(s.sqlLog, sqlLog)):]))
		s.sqlLog = sqlLog
	}
	if status != "" {
		s.spinner.Start(status)
	}
}

// Clear implements ports.StreamDisplay.
func (s *streamWriter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	if s.shown != "" {
		fmt.Fprintln(s.out)
	}
	s.shown = ""
	s.sqlLog = ""
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

var _ ports.StreamDisplay = (*streamWriter)(nil)
