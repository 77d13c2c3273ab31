package provision

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

const (
	// PrefixListPhysicalID is the fixed id reported for the lookup resource.
	PrefixListPhysicalID = "TheOnlyCustomResource"
	// DefaultPrefixListName is the CloudFront origin-facing managed list.
	DefaultPrefixListName = "com.amazonaws.global.cloudfront.origin-facing"
)

// PrefixListLookup resolves a managed prefix list id at stack creation.
type PrefixListLookup struct {
	Finder ports.PrefixListFinder
	Logger ports.Logger
	Name   string
}

// Handle looks the list up on Create; every other request type is a no-op.
func (h *PrefixListLookup) Handle(ctx context.Context, event cfn.Event) (Response, error) {
	h.Logger.Info("event received", map[string]interface{}{
		"request_type": string(event.RequestType),
		"request_id":   event.RequestID,
	})
	if event.RequestType != cfn.RequestCreate {
		return Response{PhysicalResourceID: PrefixListPhysicalID}, nil
	}

	name := h.Name
	if name == "" {
		name = DefaultPrefixListName
	}
	id, err := h.Finder.FindPrefixListID(ctx, name)
	if err != nil {
		h.Logger.Error("prefix list lookup failed", err, map[string]interface{}{"name": name})
		return Response{}, &domain.ProvisioningError{Step: "describe managed prefix lists", Err: err}
	}
	return Response{
		PhysicalResourceID: PrefixListPhysicalID,
		Data:               map[string]any{"PrefixListId": id},
	}, nil
}
