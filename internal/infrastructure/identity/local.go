package identity

import (
	"context"

	"github.com/doeshing/sqlchat/internal/ports"
)

// AllowAll accepts any non-empty credentials. It backs the "none" auth driver
// for local runs.
type AllowAll struct{}

// Authenticate implements ports.Authenticator.
func (AllowAll) Authenticate(_ context.Context, username, _ string) (string, error) {
	return "local:" + username, nil
}

var _ ports.Authenticator = AllowAll{}
