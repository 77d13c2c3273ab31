// Command prefix-list is a CloudFormation custom resource that resolves a
// managed prefix list id by name.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

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

	handler := &provision.PrefixListLookup{
		Finder: identity.NewPrefixLists(ec2.NewFromConfig(awsCfg)),
		Logger: log,
		Name:   os.Getenv("PREFIX_LIST_NAME"),
	}
	lambda.Start(handler.Handle)
}
