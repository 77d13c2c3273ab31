// Package provision implements the deployment-time custom resource handlers.
// Both handlers answer the CDK provider framework, which expects the bare
// {PhysicalResourceId, Data} document rather than a CloudFormation callback.
package provision

import (
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"
)

// Response is returned to the provider framework.
type Response struct {
	PhysicalResourceID string         `json:"PhysicalResourceId,omitempty"`
	Data               map[string]any `json:"Data,omitempty"`
}

func unsupported(rt cfn.RequestType) error {
	return fmt.Errorf("invalid request type: %q", rt)
}
