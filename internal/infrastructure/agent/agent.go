// Package agent runs the text-to-SQL reasoning loop on top of langchaingo.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

const (
	toolsHeader     = "\n\nYou have access to the following tools:\n\n{{.tool_descriptions}}"
	parserHint      = "Could not parse your last output. Reply with either an Action and Action Input, or a Final Answer."
	defaultRowLimit = 100
)

// Options tunes an SQLAgent.
type Options struct {
	SystemPrompt  string
	MaxIterations int
	RowLimit      int
}

// SQLAgent answers questions by letting the model explore a catalog.
type SQLAgent struct {
	llm      llms.Model
	catalog  ports.Catalog
	model    domain.ModelDefinition
	logger   ports.Logger
	opts     Options
	callOpts []chains.ChainCallOption
}

// New builds an agent over llm and cat.
func New(llm llms.Model, cat ports.Catalog, model domain.ModelDefinition, logger ports.Logger, opts Options) *SQLAgent {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = domain.DefaultMaxIterations
	}
	if opts.RowLimit <= 0 {
		opts.RowLimit = defaultRowLimit
	}
	return &SQLAgent{
		llm:      llm,
		catalog:  cat,
		model:    model,
		logger:   logger,
		opts:     opts,
		callOpts: CallOptions(model),
	}
}

// Invoke implements ports.Agent. A fresh executor is built per call so
// callbacks never leak between turns.
func (a *SQLAgent) Invoke(ctx context.Context, input string, observer ports.TurnObserver) (domain.AgentResult, error) {
	handler := newObserverHandler(observer)
	toolset := Toolkit(a.catalog, a.llm, a.opts.RowLimit, chains.GetLLMCallOptions(a.callOpts...)...)

	oneShot := agents.NewOneShotAgent(a.llm, toolset,
		agents.WithPromptPrefix(a.prefix()),
		agents.WithCallbacksHandler(handler),
	)
	executor := agents.NewExecutor(oneShot,
		agents.WithMaxIterations(a.opts.MaxIterations),
		agents.WithReturnIntermediateSteps(),
		agents.WithCallbacksHandler(handler),
		agents.WithParserErrorHandler(agents.NewParserErrorHandler(func(string) string { return parserHint })),
	)

	if a.logger != nil {
		a.logger.Debug("invoking sql agent", map[string]interface{}{
			"model":          a.model.Name,
			"max_iterations": a.opts.MaxIterations,
		})
	}
	out, err := chains.Call(ctx, executor, map[string]any{"input": input}, a.callOpts...)
	result := toResult(out)
	if err != nil {
		if errors.Is(err, agents.ErrNotFinished) {
			return result, fmt.Errorf("agent stopped after %d iterations: %w", a.opts.MaxIterations, err)
		}
		return result, fmt.Errorf("run sql agent: %w", err)
	}
	return result, nil
}

func (a *SQLAgent) prefix() string {
	prompt := strings.ReplaceAll(a.opts.SystemPrompt, "{dialect}", a.catalog.Dialect())
	return strings.TrimSpace(prompt) + toolsHeader
}

func toResult(out map[string]any) domain.AgentResult {
	var result domain.AgentResult
	if out == nil {
		return result
	}
	if output, ok := out["output"].(string); ok {
		result.Output = output
	}
	if steps, ok := out["intermediateSteps"].([]schema.AgentStep); ok {
		result.Steps = make([]domain.AgentStep, 0, len(steps))
		for _, step := range steps {
			result.Steps = append(result.Steps, domain.AgentStep{
				Action: domain.AgentAction{
					Tool:      step.Action.Tool,
					ToolInput: step.Action.ToolInput,
					Log:       step.Action.Log,
				},
				Observation: step.Observation,
			})
		}
	}
	return result
}

var _ ports.Agent = (*SQLAgent)(nil)
