package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/doeshing/sqlchat/internal/ports"
)

// EC2API is the subset of the EC2 client used here.
type EC2API interface {
	DescribeManagedPrefixLists(ctx context.Context, params *ec2.DescribeManagedPrefixListsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error)
}

// PrefixLists looks up managed prefix lists by name.
type PrefixLists struct {
	client EC2API
}

// NewPrefixLists wraps client.
func NewPrefixLists(client EC2API) *PrefixLists {
	return &PrefixLists{client: client}
}

// FindPrefixListID returns the id of the first list named name.
func (p *PrefixLists) FindPrefixListID(ctx context.Context, name string) (string, error) {
	out, err := p.client.DescribeManagedPrefixLists(ctx, &ec2.DescribeManagedPrefixListsInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("prefix-list-name"),
			Values: []string{name},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("describe prefix list %s: %w", name, err)
	}
	if len(out.PrefixLists) == 0 {
		return "", fmt.Errorf("prefix list %s not found", name)
	}
	return aws.ToString(out.PrefixLists[0].PrefixListId), nil
}

var _ ports.PrefixListFinder = (*PrefixLists)(nil)
