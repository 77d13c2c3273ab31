package domain

// AgentAction is one tool invocation decided by the agent.
type AgentAction struct {
	Tool      string
	ToolInput string
	Log       string
}

// AgentStep pairs an action with the tool's observation.
type AgentStep struct {
	Action      AgentAction
	Observation string
}

// AgentResult is what a finished agent invocation returns.
type AgentResult struct {
	Output string
	Steps  []AgentStep
}
