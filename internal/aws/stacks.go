package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// ListStacks discovers deployed stacks in the current region by their
// stack tag on the VPC
func (c *Client) ListStacks(ctx context.Context) ([]pkgtypes.StackSummary, error) {
	output, err := c.EC2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag-key"), Values: []string{stackTagKey}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stacks: %w", err)
	}

	var stacks []pkgtypes.StackSummary
	for _, vpc := range output.Vpcs {
		name := ""
		for _, tag := range vpc.Tags {
			if deref(tag.Key) == stackTagKey {
				name = deref(tag.Value)
				break
			}
		}
		if name == "" {
			continue
		}

		summary := pkgtypes.StackSummary{
			Name:   name,
			Region: c.region,
			VPCID:  deref(vpc.VpcId),
		}
		if endpoint, err := c.ReadEndpoint(ctx, name); err == nil {
			summary.Endpoint = endpoint
		}
		stacks = append(stacks, summary)
	}

	sort.Slice(stacks, func(i, j int) bool { return stacks[i].Name < stacks[j].Name })
	return stacks, nil
}
