// Command provision-user is a CloudFormation custom resource that signs up and
// confirms the first application user from a Secrets Manager secret.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/doeshing/sqlchat/internal/application/provision"
	"github.com/doeshing/sqlchat/internal/infrastructure/identity"
	"github.com/doeshing/sqlchat/internal/pkg/logger"
)

func main() {
	log, err := logger.New(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Error("load aws config", err, nil)
		os.Exit(1)
	}

	handler := &provision.UserBootstrap{
		Secrets:    identity.NewSecretStore(secretsmanager.NewFromConfig(awsCfg)),
		Users:      identity.NewCognito(cip.NewFromConfig(awsCfg), os.Getenv("COGNITO_CLIENT_ID")),
		Logger:     log,
		ClientID:   os.Getenv("COGNITO_CLIENT_ID"),
		UserPoolID: os.Getenv("COGNITO_USER_POOL_ID"),
		SecretID:   os.Getenv("COGNITO_SECRET_ARN"),
	}
	lambda.Start(handler.Handle)
}
