package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/pkg/logger"
	"github.com/doeshing/sqlchat/internal/ports"
)

func TestExtractSQLPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		steps      []domain.AgentStep
		recorded   string
		wantSQL    string
		wantSource domain.SQLSource
	}{
		{
			name: "first query step wins",
			steps: []domain.AgentStep{
				{Action: domain.AgentAction{Tool: "sql_db_list_tables"}},
				{Action: domain.AgentAction{Tool: "sql_db_query", ToolInput: "SELECT a FROM t"}},
				{Action: domain.AgentAction{Tool: "sql_db_query", ToolInput: "SELECT b FROM t"}},
			},
			recorded:   "SELECT z\n",
			wantSQL:    "SELECT a FROM t",
			wantSource: domain.SQLFromTrace,
		},
		{
			name: "blank trace input falls through to recorder",
			steps: []domain.AgentStep{
				{Action: domain.AgentAction{Tool: "sql_db_query", ToolInput: "   "}},
			},
			recorded:   "SELECT z\n",
			wantSQL:    "SELECT z\n",
			wantSource: domain.SQLFromRecorder,
		},
		{
			name:       "nothing recorded",
			steps:      []domain.AgentStep{{Action: domain.AgentAction{Tool: "sql_db_schema", ToolInput: "t"}}},
			wantSQL:    "No SQL query found",
			wantSource: domain.SQLNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, source := ExtractSQL(tt.steps, tt.recorded)
			if sql != tt.wantSQL || source != tt.wantSource {
				t.Fatalf("ExtractSQL() = (%q, %s), want (%q, %s)", sql, source, tt.wantSQL, tt.wantSource)
			}
		})
	}
}

func TestServiceAskPersistsRecord(t *testing.T) {
	agent := &stubAgent{
		tokens:  []string{"Bananas", " sold", " most", "."},
		actions: [][2]string{{"sql_db_query", "SELECT product FROM sales"}},
		result: domain.AgentResult{
			Output: "Bananas sold most.",
			Steps: []domain.AgentStep{{
				Action:      domain.AgentAction{Tool: "sql_db_query", ToolInput: "SELECT product FROM sales"},
				Observation: "[('bananas',)]",
			}},
		},
	}
	sink := &stubSink{}
	display := &recordingDisplay{}
	svc, clock := newTestService(agent, sink)
	sess := authenticatedSession()

	result, err := svc.Ask(context.Background(), sess, "  top product?  ", display)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	wantPrompt := "top product?" + domain.DefaultQuestionSuffix
	want := domain.QueryRecord{
		ID:               "q-1",
		UserName:         "alice",
		StartTime:        clock.base,
		EndTime:          clock.base.Add(2 * time.Second),
		ElapsedSeconds:   2,
		UserPrompt:       wantPrompt,
		SQLQuery:         "SELECT product FROM sales",
		Output:           "Bananas sold most.",
		OriginalQuestion: "top product?",
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if diff := cmp.Diff(want, sink.records[0]); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if result.State != domain.TurnIdle || !result.Answered() {
		t.Fatalf("unexpected result state: %+v", result)
	}
	if result.ElapsedClock() != "00:00:02" {
		t.Fatalf("ElapsedClock() = %s", result.ElapsedClock())
	}
	if agent.input != "human: "+wantPrompt {
		t.Fatalf("agent input = %q", agent.input)
	}
	if got := display.lastStream(); got != "Bananas sold most." {
		t.Fatalf("streamed text = %q", got)
	}
	if !display.cleared {
		t.Fatal("display should be cleared before rendering")
	}
	entries := sess.Buffer.Entries()
	if len(entries) != 2 || entries[1].Role != domain.RoleAssistant || entries[1].Content != "Bananas sold most." {
		t.Fatalf("unexpected buffer: %+v", entries)
	}
}

func TestServiceAskFallsBackToRecorder(t *testing.T) {
	agent := &stubAgent{
		actions: [][2]string{{"sql_db_query", "SELECT 1"}},
		result:  domain.AgentResult{Output: "one"},
	}
	sink := &stubSink{}
	svc, _ := newTestService(agent, sink)

	result, err := svc.Ask(context.Background(), authenticatedSession(), "q", nil)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.SQL != "SELECT 1\n" || result.SQLSource != domain.SQLFromRecorder {
		t.Fatalf("unexpected SQL %q from %s", result.SQL, result.SQLSource)
	}
}

func TestServiceAskRequiresLogin(t *testing.T) {
	agent := &stubAgent{}
	sink := &stubSink{}
	svc, _ := newTestService(agent, sink)
	sess := domain.NewSession("s", 4)

	result, err := svc.Ask(context.Background(), sess, "anything", nil)
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if result.Notice != domain.NoticeLoginRequired {
		t.Fatalf("Notice = %q", result.Notice)
	}
	if agent.calls != 0 || len(sink.records) != 0 || sess.Buffer.Len() != 0 {
		t.Fatal("unauthenticated turn must have no side effects")
	}
}

func TestServiceAskEmptyQuestion(t *testing.T) {
	agent := &stubAgent{}
	sink := &stubSink{}
	svc, _ := newTestService(agent, sink)
	sess := authenticatedSession()

	result, err := svc.Ask(context.Background(), sess, " \t ", nil)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.Notice != "Please enter a question." || result.State != domain.TurnIdle {
		t.Fatalf("unexpected result: %+v", result)
	}
	if agent.calls != 0 || len(sink.records) != 0 || sess.Buffer.Len() != 0 {
		t.Fatal("empty question must have no side effects")
	}
}

func TestServiceAskAgentFailureKeepsHumanTurn(t *testing.T) {
	agent := &stubAgent{err: errors.New("throttled")}
	sink := &stubSink{}
	svc, _ := newTestService(agent, sink)
	sess := authenticatedSession()

	result, err := svc.Ask(context.Background(), sess, "why?", nil)
	var agentErr *domain.AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("expected AgentError, got %v", err)
	}
	if result.State != domain.TurnFailed {
		t.Fatalf("State = %s, want failed", result.State)
	}
	if len(sink.records) != 0 {
		t.Fatal("failed turn must not be persisted")
	}
	entries := sess.Buffer.Entries()
	if len(entries) != 1 || entries[0].Role != domain.RoleHuman {
		t.Fatalf("human turn should stay in buffer, got %+v", entries)
	}
}

func TestServiceAskPersistenceFailureStillAnswers(t *testing.T) {
	agent := &stubAgent{result: domain.AgentResult{Output: "42"}}
	sink := &stubSink{err: errors.New("table missing")}
	svc, _ := newTestService(agent, sink)

	result, err := svc.Ask(context.Background(), authenticatedSession(), "answer?", nil)
	var persistErr *domain.PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if persistErr.RecordID != "q-1" {
		t.Fatalf("RecordID = %s", persistErr.RecordID)
	}
	if result.Answer != "42" || result.SQL != domain.NoSQLFound || result.Record.ID != "q-1" {
		t.Fatalf("result should be fully populated, got %+v", result)
	}
}

func TestServiceAskBoundsTranscript(t *testing.T) {
	agent := &stubAgent{result: domain.AgentResult{Output: "ok"}}
	svc, _ := newTestService(agent, &stubSink{})
	sess := authenticatedSession()

	for i := 0; i < 5; i++ {
		if _, err := svc.Ask(context.Background(), sess, fmt.Sprintf("q%d", i), nil); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if sess.Buffer.Len() > 4 {
			t.Fatalf("turn %d: buffer length %d exceeds cap", i, sess.Buffer.Len())
		}
	}
	if lines := strings.Count(agent.input, "\n") + 1; lines != 4 {
		t.Fatalf("last agent input should carry 4 entries, got %d: %q", lines, agent.input)
	}
	if !strings.HasSuffix(agent.input, "human: q4"+domain.DefaultQuestionSuffix) {
		t.Fatalf("last agent input should end with the newest question: %q", agent.input)
	}
}

func TestServiceAskUsesFreshAssemblerPerTurn(t *testing.T) {
	agent := &stubAgent{tokens: []string{"first"}, result: domain.AgentResult{Output: "first"}}
	svc, _ := newTestService(agent, &stubSink{})
	sess := authenticatedSession()
	display := &recordingDisplay{}

	if _, err := svc.Ask(context.Background(), sess, "a", display); err != nil {
		t.Fatal(err)
	}
	agent.tokens = []string{"second"}
	if _, err := svc.Ask(context.Background(), sess, "b", display); err != nil {
		t.Fatal(err)
	}
	if got := display.lastStream(); got != "second" {
		t.Fatalf("second turn leaked previous text: %q", got)
	}
}

func TestServiceAskRejectsConcurrentTurn(t *testing.T) {
	svc, _ := newTestService(&stubAgent{}, &stubSink{})
	sess := authenticatedSession()
	if !sess.TryBegin() {
		t.Fatal("could not claim session")
	}
	defer sess.End()

	_, err := svc.Ask(context.Background(), sess, "q", nil)
	if !errors.Is(err, domain.ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}
}

// --- stubs ---

func newTestService(agent ports.Agent, sink ports.RecordSink) (*Service, *stepClock) {
	clock := &stepClock{base: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), step: 2 * time.Second}
	ids := 0
	svc := &Service{
		ConfigProvider: stubConfigProvider{cfg: domain.Config{}},
		Agent:          agent,
		Sink:           sink,
		Logger:         logger.NewNop(),
		Now:            clock.Now,
		NewID: func() string {
			ids++
			return fmt.Sprintf("q-%d", ids)
		},
	}
	return svc, clock
}

func authenticatedSession() *domain.Session {
	sess := domain.NewSession("sess-1", 4)
	sess.SignIn("alice")
	return sess
}

// stepClock returns base on the first call and advances by step afterwards.
type stepClock struct {
	base  time.Time
	step  time.Duration
	calls int
}

func (c *stepClock) Now() time.Time {
	t := c.base.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

type stubConfigProvider struct {
	cfg domain.Config
	err error
}

func (s stubConfigProvider) Load(context.Context) (domain.Config, error) {
	return s.cfg, s.err
}

type stubAgent struct {
	tokens  []string
	actions [][2]string
	result  domain.AgentResult
	err     error

	calls int
	input string
}

func (a *stubAgent) Invoke(_ context.Context, input string, observer ports.TurnObserver) (domain.AgentResult, error) {
	a.calls++
	a.input = input
	for _, action := range a.actions {
		observer.OnAction(action[0], action[1])
	}
	for _, tok := range a.tokens {
		observer.OnToken(tok)
	}
	if a.err != nil {
		return domain.AgentResult{}, a.err
	}
	return a.result, nil
}

type stubSink struct {
	records []domain.QueryRecord
	err     error
}

func (s *stubSink) Save(_ context.Context, record domain.QueryRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type progressUpdate struct {
	sqlLog string
	status string
}

type recordingDisplay struct {
	streamed []string
	progress []progressUpdate
	cleared  bool
}

func (d *recordingDisplay) Stream(text string) { d.streamed = append(d.streamed, text) }

func (d *recordingDisplay) Progress(sqlLog, status string) {
	d.progress = append(d.progress, progressUpdate{sqlLog: sqlLog, status: status})
}

func (d *recordingDisplay) Clear() { d.cleared = true }

func (d *recordingDisplay) lastStream() string {
	if len(d.streamed) == 0 {
		return ""
	}
	return d.streamed[len(d.streamed)-1]
}
