package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// EnsureAccessPolicy provides the fleet security group. The database
// rule is self-referential: port 3306 admits only members of the same
// group, never an external source.
func (c *Client) EnsureAccessPolicy(ctx context.Context, plan *stack.Plan, network pkgtypes.Network) (pkgtypes.AccessPolicy, error) {
	return c.ensurePolicy(ctx, plan, network.ID, plan.Policy, "")
}

// ensurePolicy creates a security group and authorizes its rules.
// fleetGroupID resolves FleetGroup rules (the database policy admitting
// the fleet); it is empty for the fleet policy itself.
func (c *Client) ensurePolicy(ctx context.Context, plan *stack.Plan, vpcID string, policy stack.PolicyPlan, fleetGroupID string) (pkgtypes.AccessPolicy, error) {
	groupID, err := c.findSecurityGroup(ctx, vpcID, policy.Name)
	if err != nil {
		return pkgtypes.AccessPolicy{}, err
	}

	if groupID == "" {
		created, err := c.EC2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
			GroupName:   aws.String(policy.Name),
			Description: aws.String("Allow traffic to " + policy.Name),
			VpcId:       aws.String(vpcID),
			TagSpecifications: []ec2types.TagSpecification{
				tagSpec(ec2types.ResourceTypeSecurityGroup, plan.Name, policy.Name),
			},
		})
		if err != nil {
			return pkgtypes.AccessPolicy{}, fmt.Errorf("failed to create security group %s: %w", policy.Name, err)
		}
		groupID = deref(created.GroupId)
	}

	var permissions []ec2types.IpPermission
	var rules []pkgtypes.Rule
	for _, rule := range policy.Rules {
		perm := ec2types.IpPermission{
			IpProtocol: aws.String(rule.Protocol),
			FromPort:   aws.Int32(int32(rule.Port)),
			ToPort:     aws.Int32(int32(rule.Port)),
		}

		converted := pkgtypes.Rule{
			Protocol:    rule.Protocol,
			Port:        rule.Port,
			Description: rule.Description,
		}

		switch {
		case rule.SelfGroup:
			perm.UserIdGroupPairs = []ec2types.UserIdGroupPair{
				{GroupId: aws.String(groupID), Description: aws.String(rule.Description)},
			}
			converted.SourceGroup = groupID
		case rule.FleetGroup:
			if fleetGroupID == "" {
				return pkgtypes.AccessPolicy{}, fmt.Errorf("rule on port %d references the fleet group, but none was provided", rule.Port)
			}
			perm.UserIdGroupPairs = []ec2types.UserIdGroupPair{
				{GroupId: aws.String(fleetGroupID), Description: aws.String(rule.Description)},
			}
			converted.SourceGroup = fleetGroupID
		default:
			perm.IpRanges = []ec2types.IpRange{
				{CidrIp: aws.String(rule.Source), Description: aws.String(rule.Description)},
			}
			converted.Source = rule.Source
		}

		permissions = append(permissions, perm)
		rules = append(rules, converted)
	}

	_, err = c.EC2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: permissions,
	})
	if err != nil && !isDuplicate(err) {
		return pkgtypes.AccessPolicy{}, fmt.Errorf("failed to authorize ingress on %s: %w", policy.Name, err)
	}

	return pkgtypes.AccessPolicy{
		ID:    groupID,
		Name:  policy.Name,
		VPCID: vpcID,
		Rules: rules,
	}, nil
}

// findSecurityGroup returns the group ID or empty when absent
func (c *Client) findSecurityGroup(ctx context.Context, vpcID, name string) (string, error) {
	output, err := c.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("group-name"), Values: []string{name}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe security groups: %w", err)
	}
	if len(output.SecurityGroups) == 0 {
		return "", nil
	}
	return deref(output.SecurityGroups[0].GroupId), nil
}

// destroyAccessPolicy deletes the stack's security groups. Deletion can
// hit DependencyViolation while fleet instances are still terminating,
// so it retries for a bounded window.
func (c *Client) destroyAccessPolicy(ctx context.Context, plan *stack.Plan) error {
	vpc, err := c.findVPC(ctx, plan.Name)
	if err != nil {
		return err
	}
	if vpc == nil {
		return stack.ErrNotFound
	}

	names := []string{plan.Policy.Name}
	if plan.Database != nil {
		names = append(names, plan.Database.Policy.Name)
	}

	found := false
	for _, name := range names {
		groupID, err := c.findSecurityGroup(ctx, deref(vpc.VpcId), name)
		if err != nil {
			return err
		}
		if groupID == "" {
			continue
		}
		found = true

		if err := c.deleteSecurityGroup(ctx, groupID); err != nil {
			return fmt.Errorf("failed to delete security group %s: %w", name, err)
		}
	}

	if !found {
		return stack.ErrNotFound
	}
	return nil
}

func (c *Client) deleteSecurityGroup(ctx context.Context, groupID string) error {
	const attempts = 30

	var err error
	for i := 0; i < attempts; i++ {
		_, err = c.EC2.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
			GroupId: aws.String(groupID),
		})
		if err == nil || isNotFound(err) {
			return nil
		}
		if !isErrCode(err, "DependencyViolation") {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
	return err
}
