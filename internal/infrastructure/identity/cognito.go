// Package identity adapts AWS identity and network services to the ports the
// login flow and the provisioning handlers need.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// CognitoAPI is the subset of the user pool client used here.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
}

// Cognito authenticates against a user pool app client.
type Cognito struct {
	client   CognitoAPI
	clientID string
}

// NewCognito returns an adapter for the app client clientID.
func NewCognito(client CognitoAPI, clientID string) *Cognito {
	return &Cognito{client: client, clientID: clientID}
}

// Authenticate runs the USER_PASSWORD_AUTH flow and returns the access token.
func (c *Cognito) Authenticate(ctx context.Context, username, password string) (string, error) {
	out, err := c.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return "", &domain.AuthError{Reason: apiReason(err), Err: err}
	}
	if out.AuthenticationResult == nil {
		return "", &domain.AuthError{Reason: fmt.Sprintf("unsupported challenge %s", out.ChallengeName)}
	}
	return aws.ToString(out.AuthenticationResult.AccessToken), nil
}

// SignUp registers username with the app client.
func (c *Cognito) SignUp(ctx context.Context, clientID, username, password string) error {
	_, err := c.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(clientID),
		Username: aws.String(username),
		Password: aws.String(password),
	})
	if err != nil {
		return fmt.Errorf("sign up %s: %w", username, err)
	}
	return nil
}

// ConfirmSignUp confirms username as a pool administrator.
func (c *Cognito) ConfirmSignUp(ctx context.Context, userPoolID, username string) error {
	_, err := c.client.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
		UserPoolId: aws.String(userPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("confirm sign up %s: %w", username, err)
	}
	return nil
}

// apiReason prefers the service's own message over the SDK's wrapped text.
func apiReason(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return msg
		}
		return apiErr.ErrorCode()
	}
	return err.Error()
}

var (
	_ ports.Authenticator = (*Cognito)(nil)
	_ ports.UserRegistrar = (*Cognito)(nil)
)
