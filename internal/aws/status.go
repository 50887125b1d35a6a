package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// Inventory returns the current state of every resource the plan
// declares, in dependency order, including ones that do not exist yet
func (c *Client) Inventory(ctx context.Context, plan *stack.Plan) ([]pkgtypes.Resource, error) {
	var resources []pkgtypes.Resource
	add := func(kind stack.Kind, name, id, state string) {
		if id == "" {
			id, state = "-", "missing"
		}
		resources = append(resources, pkgtypes.Resource{
			Kind: string(kind), Name: name, ID: id, State: state,
		})
	}

	vpc, err := c.findVPC(ctx, plan.Name)
	if err != nil {
		return nil, err
	}
	var vpcID string
	if vpc != nil {
		vpcID = deref(vpc.VpcId)
		add(stack.KindNetwork, plan.Name+"-vpc", vpcID, string(vpc.State))
	} else {
		add(stack.KindNetwork, plan.Name+"-vpc", "", "")
	}

	var groupID string
	if vpcID != "" {
		groupID, err = c.findSecurityGroup(ctx, vpcID, plan.Policy.Name)
		if err != nil {
			return nil, err
		}
	}
	add(stack.KindAccessPolicy, plan.Policy.Name, groupID, "available")

	role, err := c.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(plan.Role.Name)})
	switch {
	case err == nil:
		add(stack.KindIdentityRole, plan.Role.Name, deref(role.Role.Arn), "available")
	case isNotFound(err):
		add(stack.KindIdentityRole, plan.Role.Name, "", "")
	default:
		return nil, err
	}

	if plan.Database != nil {
		db, err := c.findDatabase(ctx, plan.Database.Identifier)
		if err != nil {
			return nil, err
		}
		if db != nil {
			add(stack.KindDatabase, plan.Database.Identifier, deref(db.DBInstanceIdentifier), deref(db.DBInstanceStatus))
		} else {
			add(stack.KindDatabase, plan.Database.Identifier, "", "")
		}
	}

	templates, err := c.EC2.DescribeLaunchTemplates(ctx, &ec2.DescribeLaunchTemplatesInput{
		LaunchTemplateNames: []string{plan.Template.Name},
	})
	if err == nil && len(templates.LaunchTemplates) > 0 {
		add(stack.KindLaunchTemplate, plan.Template.Name, deref(templates.LaunchTemplates[0].LaunchTemplateId), "available")
	} else if err != nil && !isNotFound(err) {
		return nil, err
	} else {
		add(stack.KindLaunchTemplate, plan.Template.Name, "", "")
	}

	fleet, err := c.DescribeFleet(ctx, plan.Fleet.Name)
	if err != nil {
		return nil, err
	}
	if fleet != nil {
		add(stack.KindFleet, plan.Fleet.Name, fleet.Name,
			formatFleetState(fleet))
	} else {
		add(stack.KindFleet, plan.Fleet.Name, "", "")
	}

	lb, err := c.DescribeEndpoint(ctx, plan)
	if err != nil {
		return nil, err
	}
	if lb != nil {
		add(stack.KindLoadBalancer, plan.LoadBalancer.Name, lb.DNSName, lb.State)
	} else {
		add(stack.KindLoadBalancer, plan.LoadBalancer.Name, "", "")
	}

	return resources, nil
}

func formatFleetState(fleet *pkgtypes.Fleet) string {
	if fleet.HealthyCount == fleet.InstanceCount && fleet.InstanceCount >= fleet.MinSize {
		return "healthy"
	}
	return "degraded"
}
