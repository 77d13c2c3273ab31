package domain

import (
	"fmt"
	"time"
)

// TurnState tracks where a question is in its lifecycle.
type TurnState string

const (
	TurnIdle       TurnState = "idle"
	TurnValidating TurnState = "validating"
	TurnInvoking   TurnState = "invoking"
	TurnExtracting TurnState = "extracting"
	TurnPersisting TurnState = "persisting"
	TurnRendering  TurnState = "rendering"
	TurnFailed     TurnState = "failed"
)

// SQLSource records where the reported SQL came from.
type SQLSource string

const (
	SQLFromTrace    SQLSource = "trace"
	SQLFromRecorder SQLSource = "recorder"
	SQLNotFound     SQLSource = "none"
)

// User-facing notices.
const (
	NoticeEmptyQuestion = "Please enter a question."
	NoticeLoginRequired = "Please login to use the application!"
	StatusGenerating    = "Generating the SQL ..."
	StatusSummarizing   = "Summarizing Insights ..."
)

// TurnResult is the view model rendered once a turn completes.
type TurnResult struct {
	State     TurnState
	Notice    string
	Question  string
	SQL       string
	SQLSource SQLSource
	Answer    string
	Elapsed   time.Duration
	Record    QueryRecord
}

// Answered reports whether the turn produced an answer.
func (r TurnResult) Answered() bool {
	return r.Notice == "" && r.State == TurnIdle && r.Question != ""
}

// ElapsedClock renders the elapsed time as HH:MM:SS.
func (r TurnResult) ElapsedClock() string {
	return FormatClock(r.Elapsed)
}

// FormatClock renders a duration as HH:MM:SS, truncating fractions of a second.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
