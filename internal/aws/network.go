package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// EnsureNetwork provides the VPC, internet gateway, public subnets, and
// routing the stack runs in. Lookups go by the stack tag, so a re-apply
// finds the existing pieces instead of creating new ones.
func (c *Client) EnsureNetwork(ctx context.Context, plan *stack.Plan) (pkgtypes.Network, error) {
	vpc, err := c.findVPC(ctx, plan.Name)
	if err != nil {
		return pkgtypes.Network{}, err
	}

	if vpc == nil {
		created, err := c.EC2.CreateVpc(ctx, &ec2.CreateVpcInput{
			CidrBlock: aws.String(plan.Network.CIDR),
			TagSpecifications: []ec2types.TagSpecification{
				tagSpec(ec2types.ResourceTypeVpc, plan.Name, plan.Name+"-vpc"),
			},
		})
		if err != nil {
			return pkgtypes.Network{}, fmt.Errorf("failed to create VPC: %w", err)
		}
		vpc = created.Vpc

		// public DNS names need both attributes; they can only be set
		// one per call
		for _, attr := range []ec2.ModifyVpcAttributeInput{
			{VpcId: vpc.VpcId, EnableDnsSupport: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)}},
			{VpcId: vpc.VpcId, EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)}},
		} {
			if _, err := c.EC2.ModifyVpcAttribute(ctx, &attr); err != nil {
				return pkgtypes.Network{}, fmt.Errorf("failed to set VPC attribute: %w", err)
			}
		}
	}

	vpcID := deref(vpc.VpcId)

	gatewayID, err := c.ensureInternetGateway(ctx, plan, vpcID)
	if err != nil {
		return pkgtypes.Network{}, err
	}

	subnets, err := c.ensureSubnets(ctx, plan, vpcID)
	if err != nil {
		return pkgtypes.Network{}, err
	}

	if err := c.ensureRouting(ctx, plan, vpcID, gatewayID, subnets); err != nil {
		return pkgtypes.Network{}, err
	}

	return pkgtypes.Network{
		ID:      vpcID,
		Name:    plan.Name + "-vpc",
		CIDR:    deref(vpc.CidrBlock),
		State:   string(vpc.State),
		Gateway: gatewayID,
		Subnets: subnets,
	}, nil
}

// findVPC returns the stack's VPC or nil when it does not exist
func (c *Client) findVPC(ctx context.Context, stackName string) (*ec2types.Vpc, error) {
	output, err := c.EC2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag:" + stackTagKey), Values: []string{stackName}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe VPCs: %w", err)
	}

	if len(output.Vpcs) == 0 {
		return nil, nil
	}
	return &output.Vpcs[0], nil
}

func (c *Client) ensureInternetGateway(ctx context.Context, plan *stack.Plan, vpcID string) (string, error) {
	output, err := c.EC2.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("attachment.vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe internet gateways: %w", err)
	}
	if len(output.InternetGateways) > 0 {
		return deref(output.InternetGateways[0].InternetGatewayId), nil
	}

	created, err := c.EC2.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
		TagSpecifications: []ec2types.TagSpecification{
			tagSpec(ec2types.ResourceTypeInternetGateway, plan.Name, plan.Name+"-igw"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create internet gateway: %w", err)
	}

	gatewayID := deref(created.InternetGateway.InternetGatewayId)
	_, err = c.EC2.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(gatewayID),
		VpcId:             aws.String(vpcID),
	})
	if err != nil && !isDuplicate(err) {
		return "", fmt.Errorf("failed to attach internet gateway: %w", err)
	}

	return gatewayID, nil
}

// ensureSubnets spreads one public subnet per declared CIDR across the
// region's availability zones
func (c *Client) ensureSubnets(ctx context.Context, plan *stack.Plan, vpcID string) ([]pkgtypes.Subnet, error) {
	azs, err := c.EC2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"available"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe availability zones: %w", err)
	}
	if len(azs.AvailabilityZones) < len(plan.Network.Subnets) {
		return nil, fmt.Errorf("region %s has %d availability zones, need %d",
			plan.Region, len(azs.AvailabilityZones), len(plan.Network.Subnets))
	}

	var subnets []pkgtypes.Subnet
	for i, cidr := range plan.Network.Subnets {
		zone := deref(azs.AvailabilityZones[i].ZoneName)

		existing, err := c.EC2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("vpc-id"), Values: []string{vpcID}},
				{Name: aws.String("cidr-block"), Values: []string{cidr}},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe subnets: %w", err)
		}

		var subnet ec2types.Subnet
		if len(existing.Subnets) > 0 {
			subnet = existing.Subnets[0]
		} else {
			created, err := c.EC2.CreateSubnet(ctx, &ec2.CreateSubnetInput{
				VpcId:            aws.String(vpcID),
				CidrBlock:        aws.String(cidr),
				AvailabilityZone: aws.String(zone),
				TagSpecifications: []ec2types.TagSpecification{
					tagSpec(ec2types.ResourceTypeSubnet, plan.Name, fmt.Sprintf("%s-public-%d", plan.Name, i)),
				},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create subnet %s: %w", cidr, err)
			}
			subnet = *created.Subnet

			// every instance gets a public address; reachability is
			// governed by the access policy, not the topology
			_, err = c.EC2.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
				SubnetId:            subnet.SubnetId,
				MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to enable public addresses on subnet: %w", err)
			}
		}

		subnets = append(subnets, pkgtypes.Subnet{
			ID:        deref(subnet.SubnetId),
			CIDR:      deref(subnet.CidrBlock),
			AZ:        deref(subnet.AvailabilityZone),
			State:     string(subnet.State),
			Public:    true,
			Available: int(deref32(subnet.AvailableIpAddressCount)),
		})
	}

	return subnets, nil
}

func (c *Client) ensureRouting(ctx context.Context, plan *stack.Plan, vpcID, gatewayID string, subnets []pkgtypes.Subnet) error {
	tables, err := c.EC2.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("tag:" + stackTagKey), Values: []string{plan.Name}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to describe route tables: %w", err)
	}

	var tableID string
	if len(tables.RouteTables) > 0 {
		tableID = deref(tables.RouteTables[0].RouteTableId)
	} else {
		created, err := c.EC2.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
			VpcId: aws.String(vpcID),
			TagSpecifications: []ec2types.TagSpecification{
				tagSpec(ec2types.ResourceTypeRouteTable, plan.Name, plan.Name+"-public"),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create route table: %w", err)
		}
		tableID = deref(created.RouteTable.RouteTableId)
	}

	_, err = c.EC2.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         aws.String(tableID),
		DestinationCidrBlock: aws.String("0.0.0.0/0"),
		GatewayId:            aws.String(gatewayID),
	})
	if err != nil && !isDuplicate(err) {
		return fmt.Errorf("failed to create default route: %w", err)
	}

	for _, subnet := range subnets {
		_, err = c.EC2.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
			RouteTableId: aws.String(tableID),
			SubnetId:     aws.String(subnet.ID),
		})
		if err != nil && !isDuplicate(err) {
			return fmt.Errorf("failed to associate route table with %s: %w", subnet.ID, err)
		}
	}

	return nil
}

// destroyNetwork removes routing, subnets, gateway, and the VPC
func (c *Client) destroyNetwork(ctx context.Context, plan *stack.Plan) error {
	vpc, err := c.findVPC(ctx, plan.Name)
	if err != nil {
		return err
	}
	if vpc == nil {
		return stack.ErrNotFound
	}
	vpcID := deref(vpc.VpcId)

	tables, err := c.EC2.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("tag:" + stackTagKey), Values: []string{plan.Name}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to describe route tables: %w", err)
	}
	for _, table := range tables.RouteTables {
		for _, assoc := range table.Associations {
			if derefBool(assoc.Main) {
				continue
			}
			if _, err := c.EC2.DisassociateRouteTable(ctx, &ec2.DisassociateRouteTableInput{
				AssociationId: assoc.RouteTableAssociationId,
			}); err != nil && !isNotFound(err) {
				return fmt.Errorf("failed to disassociate route table: %w", err)
			}
		}
		if _, err := c.EC2.DeleteRouteTable(ctx, &ec2.DeleteRouteTableInput{
			RouteTableId: table.RouteTableId,
		}); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete route table: %w", err)
		}
	}

	subnets, err := c.EC2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to describe subnets: %w", err)
	}
	for _, subnet := range subnets.Subnets {
		if _, err := c.EC2.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{
			SubnetId: subnet.SubnetId,
		}); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete subnet %s: %w", deref(subnet.SubnetId), err)
		}
	}

	gateways, err := c.EC2.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("attachment.vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to describe internet gateways: %w", err)
	}
	for _, gateway := range gateways.InternetGateways {
		if _, err := c.EC2.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
			InternetGatewayId: gateway.InternetGatewayId,
			VpcId:             aws.String(vpcID),
		}); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to detach internet gateway: %w", err)
		}
		if _, err := c.EC2.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
			InternetGatewayId: gateway.InternetGatewayId,
		}); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete internet gateway: %w", err)
		}
	}

	if _, err := c.EC2.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(vpcID)}); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete VPC: %w", err)
	}

	return nil
}
