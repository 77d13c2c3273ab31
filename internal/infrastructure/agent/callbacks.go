package agent

import (
	"context"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/schema"

	"github.com/doeshing/sqlchat/internal/ports"
)

// observerHandler forwards streamed tokens and tool actions to a TurnObserver.
type observerHandler struct {
	callbacks.SimpleHandler
	observer ports.TurnObserver
}

func newObserverHandler(observer ports.TurnObserver) *observerHandler {
	return &observerHandler{observer: observer}
}

func (h *observerHandler) HandleStreamingFunc(_ context.Context, chunk []byte) {
	if h.observer == nil || len(chunk) == 0 {
		return
	}
	h.observer.OnToken(string(chunk))
}

func (h *observerHandler) HandleAgentAction(_ context.Context, action schema.AgentAction) {
	if h.observer == nil {
		return
	}
	h.observer.OnAction(action.Tool, action.ToolInput)
}

var _ callbacks.Handler = (*observerHandler)(nil)
