package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// UserBootstrap creates the initial application user from a stored secret.
type UserBootstrap struct {
	Secrets ports.SecretReader
	Users   ports.UserRegistrar
	Logger  ports.Logger

	ClientID   string
	UserPoolID string
	SecretID   string
}

type bootstrapSecret struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Handle dispatches on the request type. Update and Delete are no-ops.
func (h *UserBootstrap) Handle(ctx context.Context, event cfn.Event) (Response, error) {
	h.Logger.Info("event received", map[string]interface{}{
		"request_type": string(event.RequestType),
		"request_id":   event.RequestID,
		"resource":     event.LogicalResourceID,
	})

	switch event.RequestType {
	case cfn.RequestCreate:
		if err := h.create(ctx); err != nil {
			h.Logger.Error("user bootstrap failed", err, nil)
			return Response{}, err
		}
		return Response{PhysicalResourceID: h.ClientID}, nil
	case cfn.RequestUpdate, cfn.RequestDelete:
		return Response{PhysicalResourceID: h.ClientID}, nil
	default:
		return Response{}, unsupported(event.RequestType)
	}
}

func (h *UserBootstrap) create(ctx context.Context) error {
	raw, err := h.Secrets.ReadSecret(ctx, h.SecretID)
	if err != nil {
		return &domain.ProvisioningError{Step: "read secret", Err: err}
	}

	var secret bootstrapSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return &domain.ProvisioningError{Step: "decode secret", Err: err}
	}
	if secret.Username == "" || secret.Password == "" {
		return &domain.ProvisioningError{Step: "decode secret", Err: errors.New("username and password are required")}
	}
	h.Logger.Info("retrieved bootstrap secret", map[string]interface{}{"username": secret.Username})

	if err := h.Users.SignUp(ctx, h.ClientID, secret.Username, secret.Password); err != nil {
		return &domain.ProvisioningError{Step: "sign up", Err: err}
	}
	if err := h.Users.ConfirmSignUp(ctx, h.UserPoolID, secret.Username); err != nil {
		return &domain.ProvisioningError{Step: "confirm sign up", Err: fmt.Errorf("user %s: %w", secret.Username, err)}
	}
	h.Logger.Info("confirmed sign up via admin", map[string]interface{}{"username": secret.Username})
	return nil
}
