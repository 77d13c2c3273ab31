package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// Service orchestrates one question from submission to rendered answer.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Agent          ports.Agent
	Sink           ports.RecordSink
	Metrics        ports.TurnMetrics
	Logger         ports.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Ask runs a single turn for sess. The returned result is always safe to
// render; when err is a *domain.PersistenceError the result is fully populated.
func (s *Service) Ask(ctx context.Context, sess *domain.Session, question string, display ports.StreamDisplay) (domain.TurnResult, error) {
	if s.ConfigProvider == nil || s.Agent == nil || s.Logger == nil {
		return domain.TurnResult{}, errors.New("chat.Service dependencies not satisfied")
	}
	if sess == nil || !sess.Authenticated {
		return domain.TurnResult{State: domain.TurnIdle, Notice: domain.NoticeLoginRequired}, domain.ErrNotAuthenticated
	}
	if !sess.TryBegin() {
		return domain.TurnResult{State: domain.TurnIdle}, domain.ErrTurnInProgress
	}
	defer sess.End()

	turn := &turnLog{logger: s.Logger, session: sess.ID}
	turn.enter(domain.TurnValidating)

	question = strings.TrimSpace(question)
	if question == "" {
		turn.enter(domain.TurnIdle)
		return domain.TurnResult{State: domain.TurnIdle, Notice: domain.NoticeEmptyQuestion}, nil
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		turn.enter(domain.TurnFailed)
		return domain.TurnResult{State: domain.TurnFailed, Question: question}, fmt.Errorf("load config: %w", err)
	}

	suffix := cfg.Agent.QuestionSuffix
	if suffix == "" {
		suffix = domain.DefaultQuestionSuffix
	}
	prompt := question + suffix
	if sess.Buffer == nil {
		sess.Buffer = domain.NewConversationBuffer(cfg.ConversationLimit())
	}
	sess.Buffer.Append(domain.RoleHuman, prompt)
	input := sess.Buffer.Transcript()

	turn.enter(domain.TurnInvoking)
	assembler := NewTokenAssembler(display)
	recorder := NewActionRecorder(display)
	if display != nil {
		display.Progress("", domain.StatusGenerating)
	}
	start := s.now()

	invokeCtx := ctx
	if timeout := cfg.AgentTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	answer, err := s.Agent.Invoke(invokeCtx, input, turnObserver{assembler: assembler, recorder: recorder})
	s.metrics().ObserveTokens(assembler.Fragments())
	if err != nil {
		turn.enter(domain.TurnFailed)
		s.metrics().ObserveTurn("agent_error", s.now().Sub(start))
		s.Logger.Error("agent invocation failed", err, map[string]interface{}{
			"session": sess.ID,
			"user":    sess.UserName,
		})
		return domain.TurnResult{State: domain.TurnFailed, Question: question}, &domain.AgentError{Err: err}
	}

	turn.enter(domain.TurnExtracting)
	sql, source := ExtractSQL(answer.Steps, recorder.Log())
	s.metrics().ObserveSQLSource(source)
	sess.Buffer.Append(domain.RoleAssistant, answer.Output)
	end := s.now()
	elapsed := end.Sub(start)

	record := domain.QueryRecord{
		ID:               s.newID(),
		UserName:         sess.UserName,
		StartTime:        start,
		EndTime:          end,
		ElapsedSeconds:   elapsed.Seconds(),
		UserPrompt:       prompt,
		SQLQuery:         sql,
		Output:           answer.Output,
		OriginalQuestion: question,
	}

	turn.enter(domain.TurnPersisting)
	var persistErr error
	if s.Sink != nil {
		if err := s.Sink.Save(ctx, record); err != nil {
			persistErr = &domain.PersistenceError{RecordID: record.ID, Err: err}
			s.Logger.Error("query record not persisted", err, map[string]interface{}{"query_id": record.ID})
		}
	}

	turn.enter(domain.TurnRendering)
	if display != nil {
		display.Clear()
	}
	result := domain.TurnResult{
		State:     domain.TurnIdle,
		Question:  question,
		SQL:       sql,
		SQLSource: source,
		Answer:    answer.Output,
		Elapsed:   elapsed,
		Record:    record,
	}
	turn.enter(domain.TurnIdle)

	status := "ok"
	if persistErr != nil {
		status = "persist_error"
	}
	s.metrics().ObserveTurn(status, elapsed)
	s.Logger.Info("turn answered", map[string]interface{}{
		"query_id":   record.ID,
		"user":       sess.UserName,
		"sql_source": string(source),
		"elapsed":    elapsed.String(),
	})

	if persistErr != nil {
		return result, persistErr
	}
	return result, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) metrics() ports.TurnMetrics {
	if s.Metrics == nil {
		return nopMetrics{}
	}
	return s.Metrics
}

// turnLog traces state transitions at debug level.
type turnLog struct {
	logger  ports.Logger
	session string
	state   domain.TurnState
}

func (t *turnLog) enter(next domain.TurnState) {
	t.logger.Debug("turn state", map[string]interface{}{
		"session": t.session,
		"from":    string(t.state),
		"to":      string(next),
	})
	t.state = next
}

type nopMetrics struct{}

func (nopMetrics) ObserveTurn(string, time.Duration) {}
func (nopMetrics) ObserveTokens(int)                 {}
func (nopMetrics) ObserveSQLSource(domain.SQLSource) {}
func (nopMetrics) ObserveLogin(string)               {}
