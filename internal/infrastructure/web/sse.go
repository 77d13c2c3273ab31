package web

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// Server-sent event names.
const (
	EventStream = "stream"
	EventSQL    = "sql"
	EventResult = "result"
	EventNotice = "notice"
	EventError  = "error"
)

type streamPayload struct {
	Text string `json:"text"`
}

type sqlPayload struct {
	SQL    string `json:"sql"`
	Status string `json:"status"`
}

type resultPayload struct {
	QueryID   string `json:"query_id"`
	Question  string `json:"question"`
	SQL       string `json:"sql"`
	SQLSource string `json:"sql_source"`
	Answer    string `json:"answer"`
	Elapsed   string `json:"elapsed"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func newResultPayload(result domain.TurnResult) resultPayload {
	return resultPayload{
		QueryID:   result.Record.ID,
		Question:  result.Question,
		SQL:       result.SQL,
		SQLSource: string(result.SQLSource),
		Answer:    result.Answer,
		Elapsed:   "Time: " + result.ElapsedClock(),
	}
}

// sseDisplay renders turn progress as server-sent events.
type sseDisplay struct {
	mu sync.Mutex
	c  *gin.Context
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func newSSEDisplay(c *gin.Context) *sseDisplay {
	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	return &sseDisplay{c: c}
}

func (d *sseDisplay) send(event string, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.c.SSEvent(event, payload)
	d.c.Writer.Flush()
}

// Stream implements ports.StreamDisplay.
func (d *sseDisplay) Stream(text string) {
	d.send(EventStream, streamPayload{Text: text})
}

// Progress implements ports.StreamDisplay.
func (d *sseDisplay) Progress(sqlLog, status string) {
	d.send(EventSQL, sqlPayload{SQL: sqlLog, Status: status})
}

// Clear implements ports.StreamDisplay.
func (d *sseDisplay) Clear() {
	d.send(EventSQL, sqlPayload{})
}

var _ ports.StreamDisplay = (*sseDisplay)(nil)
