package domain

import "errors"

// ErrNotAuthenticated is returned when a turn is attempted without logging in.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrTurnInProgress is returned when a session already has a running turn.
var ErrTurnInProgress = errors.New("a question is already being answered")

// AuthError carries the identity provider's reason for rejecting a login.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	return "Authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// AgentError wraps a failed agent invocation.
type AgentError struct {
	Err error
}

func (e *AgentError) Error() string {
	return "agent invocation failed: " + e.Err.Error()
}

func (e *AgentError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed record write. The answer is still valid.
type PersistenceError struct {
	RecordID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return "persist query record " + e.RecordID + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProvisioningError names the provisioning step that failed.
type ProvisioningError struct {
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
