package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// EnsureLoadBalancer provides the internet-facing entry point: the load
// balancer, the target group with its health check, the port 80
// listener, and the fleet attachment. The exported endpoint is also
// published as an SSM parameter.
func (c *Client) EnsureLoadBalancer(ctx context.Context, plan *stack.Plan, network pkgtypes.Network, policy pkgtypes.AccessPolicy, fleet pkgtypes.Fleet) (pkgtypes.Endpoint, error) {
	lb, err := c.findLoadBalancer(ctx, plan.LoadBalancer.Name)
	if err != nil {
		return pkgtypes.Endpoint{}, err
	}

	if lb == nil {
		created, err := c.ELBv2.CreateLoadBalancer(ctx, &elbv2.CreateLoadBalancerInput{
			Name:           aws.String(plan.LoadBalancer.Name),
			Subnets:        network.SubnetIDs(),
			SecurityGroups: []string{policy.ID},
			Scheme:         elbv2types.LoadBalancerSchemeEnumInternetFacing,
			Type:           elbv2types.LoadBalancerTypeEnumApplication,
			Tags: []elbv2types.Tag{
				{Key: aws.String(stackTagKey), Value: aws.String(plan.Name)},
			},
		})
		if err != nil {
			return pkgtypes.Endpoint{}, fmt.Errorf("failed to create load balancer: %w", err)
		}
		lb = &created.LoadBalancers[0]
	}

	targetGroupARN, err := c.ensureTargetGroup(ctx, plan, network.ID)
	if err != nil {
		return pkgtypes.Endpoint{}, err
	}

	if err := c.ensureListener(ctx, plan, deref(lb.LoadBalancerArn), targetGroupARN); err != nil {
		return pkgtypes.Endpoint{}, err
	}

	// target registration is owned by the fleet manager from here on
	_, err = c.ASG.AttachLoadBalancerTargetGroups(ctx, &autoscaling.AttachLoadBalancerTargetGroupsInput{
		AutoScalingGroupName: aws.String(fleet.Name),
		TargetGroupARNs:      []string{targetGroupARN},
	})
	if err != nil {
		return pkgtypes.Endpoint{}, fmt.Errorf("failed to attach fleet to target group: %w", err)
	}

	endpoint := pkgtypes.Endpoint{
		DNSName:      deref(lb.DNSName),
		LoadBalancer: plan.LoadBalancer.Name,
		URL:          fmt.Sprintf("http://%s%s", deref(lb.DNSName), plan.LoadBalancer.HealthCheckPath),
	}

	if err := c.publishEndpoint(ctx, plan.Name, endpoint.DNSName); err != nil {
		return pkgtypes.Endpoint{}, err
	}

	return endpoint, nil
}

func (c *Client) ensureTargetGroup(ctx context.Context, plan *stack.Plan, vpcID string) (string, error) {
	existing, err := c.ELBv2.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{
		Names: []string{plan.LoadBalancer.TargetGroupName},
	})
	if err == nil && len(existing.TargetGroups) > 0 {
		return deref(existing.TargetGroups[0].TargetGroupArn), nil
	}
	if err != nil && !isNotFound(err) {
		return "", fmt.Errorf("failed to describe target groups: %w", err)
	}

	lbPlan := plan.LoadBalancer
	created, err := c.ELBv2.CreateTargetGroup(ctx, &elbv2.CreateTargetGroupInput{
		Name:                       aws.String(lbPlan.TargetGroupName),
		Protocol:                   elbv2types.ProtocolEnumHttp,
		Port:                       aws.Int32(int32(lbPlan.Port)),
		VpcId:                      aws.String(vpcID),
		TargetType:                 elbv2types.TargetTypeEnumInstance,
		HealthCheckPath:            aws.String(lbPlan.HealthCheckPath),
		HealthCheckIntervalSeconds: aws.Int32(int32(lbPlan.HealthCheckInterval.Seconds())),
		HealthCheckTimeoutSeconds:  aws.Int32(int32(lbPlan.HealthCheckTimeout.Seconds())),
		HealthyThresholdCount:      aws.Int32(int32(lbPlan.HealthyThreshold)),
		UnhealthyThresholdCount:    aws.Int32(int32(lbPlan.UnhealthyThreshold)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create target group: %w", err)
	}

	return deref(created.TargetGroups[0].TargetGroupArn), nil
}

func (c *Client) ensureListener(ctx context.Context, plan *stack.Plan, lbARN, targetGroupARN string) error {
	listeners, err := c.ELBv2.DescribeListeners(ctx, &elbv2.DescribeListenersInput{
		LoadBalancerArn: aws.String(lbARN),
	})
	if err != nil {
		return fmt.Errorf("failed to describe listeners: %w", err)
	}
	for _, l := range listeners.Listeners {
		if int(deref32(l.Port)) == plan.LoadBalancer.Port {
			return nil
		}
	}

	_, err = c.ELBv2.CreateListener(ctx, &elbv2.CreateListenerInput{
		LoadBalancerArn: aws.String(lbARN),
		Port:            aws.Int32(int32(plan.LoadBalancer.Port)),
		Protocol:        elbv2types.ProtocolEnumHttp,
		DefaultActions: []elbv2types.Action{
			{
				Type:           elbv2types.ActionTypeEnumForward,
				TargetGroupArn: aws.String(targetGroupARN),
			},
		},
	})
	if err != nil && !isDuplicate(err) {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	return nil
}

// DescribeEndpoint returns the deployed entry point or nil when the
// load balancer does not exist
func (c *Client) DescribeEndpoint(ctx context.Context, plan *stack.Plan) (*pkgtypes.LoadBalancer, error) {
	lb, err := c.findLoadBalancer(ctx, plan.LoadBalancer.Name)
	if err != nil || lb == nil {
		return nil, err
	}

	converted := toLoadBalancer(*lb)
	return &converted, nil
}

// DescribeTargetGroup returns the deployed health check configuration
// or nil when the target group does not exist
func (c *Client) DescribeTargetGroup(ctx context.Context, plan *stack.Plan) (*pkgtypes.TargetGroup, error) {
	groups, err := c.ELBv2.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{
		Names: []string{plan.LoadBalancer.TargetGroupName},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe target groups: %w", err)
	}
	if len(groups.TargetGroups) == 0 {
		return nil, nil
	}

	converted := toTargetGroup(groups.TargetGroups[0])
	return &converted, nil
}

func toTargetGroup(g elbv2types.TargetGroup) pkgtypes.TargetGroup {
	return pkgtypes.TargetGroup{
		Name:                deref(g.TargetGroupName),
		ARN:                 deref(g.TargetGroupArn),
		Protocol:            string(g.Protocol),
		Port:                int(deref32(g.Port)),
		VPCID:               deref(g.VpcId),
		HealthCheckPath:     deref(g.HealthCheckPath),
		HealthCheckInterval: time.Duration(deref32(g.HealthCheckIntervalSeconds)) * time.Second,
		HealthCheckTimeout:  time.Duration(deref32(g.HealthCheckTimeoutSeconds)) * time.Second,
		HealthyThreshold:    int(deref32(g.HealthyThresholdCount)),
		UnhealthyThreshold:  int(deref32(g.UnhealthyThresholdCount)),
	}
}

// ListTargets returns the health of every registered target
func (c *Client) ListTargets(ctx context.Context, plan *stack.Plan) ([]pkgtypes.Target, error) {
	groups, err := c.ELBv2.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{
		Names: []string{plan.LoadBalancer.TargetGroupName},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe target groups: %w", err)
	}
	if len(groups.TargetGroups) == 0 {
		return nil, nil
	}

	health, err := c.ELBv2.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: groups.TargetGroups[0].TargetGroupArn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe target health: %w", err)
	}

	var targets []pkgtypes.Target
	for _, t := range health.TargetHealthDescriptions {
		target := pkgtypes.Target{}
		if t.Target != nil {
			target.ID = deref(t.Target.Id)
			target.Port = int(deref32(t.Target.Port))
			target.AZ = deref(t.Target.AvailabilityZone)
		}
		if t.TargetHealth != nil {
			target.Health = string(t.TargetHealth.State)
			target.Reason = deref(t.TargetHealth.Description)
		}
		targets = append(targets, target)
	}

	return targets, nil
}

func (c *Client) findLoadBalancer(ctx context.Context, name string) (*elbv2types.LoadBalancer, error) {
	output, err := c.ELBv2.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{
		Names: []string{name},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe load balancers: %w", err)
	}
	if len(output.LoadBalancers) == 0 {
		return nil, nil
	}
	return &output.LoadBalancers[0], nil
}

// toLoadBalancer converts an SDK load balancer to our type
func toLoadBalancer(lb elbv2types.LoadBalancer) pkgtypes.LoadBalancer {
	converted := pkgtypes.LoadBalancer{
		Name:      deref(lb.LoadBalancerName),
		ARN:       deref(lb.LoadBalancerArn),
		DNSName:   deref(lb.DNSName),
		Scheme:    string(lb.Scheme),
		VPCID:     deref(lb.VpcId),
		CreatedAt: derefTime(lb.CreatedTime),
	}
	if lb.State != nil {
		converted.State = string(lb.State.Code)
	}
	for _, az := range lb.AvailabilityZones {
		converted.AZs = append(converted.AZs, deref(az.ZoneName))
	}
	return converted
}

func (c *Client) destroyLoadBalancer(ctx context.Context, plan *stack.Plan) error {
	found := false

	lb, err := c.findLoadBalancer(ctx, plan.LoadBalancer.Name)
	if err != nil {
		return err
	}
	if lb != nil {
		found = true
		_, err = c.ELBv2.DeleteLoadBalancer(ctx, &elbv2.DeleteLoadBalancerInput{
			LoadBalancerArn: lb.LoadBalancerArn,
		})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete load balancer: %w", err)
		}
	}

	groups, err := c.ELBv2.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{
		Names: []string{plan.LoadBalancer.TargetGroupName},
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to describe target groups: %w", err)
	}
	if err == nil && len(groups.TargetGroups) > 0 {
		found = true
		if err := c.deleteTargetGroup(ctx, deref(groups.TargetGroups[0].TargetGroupArn)); err != nil {
			return err
		}
	}

	if err := c.unpublishEndpoint(ctx, plan.Name); err != nil {
		return err
	}

	if !found {
		return stack.ErrNotFound
	}
	return nil
}

// deleteTargetGroup retries while the group is still referenced by the
// load balancer being deleted
func (c *Client) deleteTargetGroup(ctx context.Context, arn string) error {
	for attempt := 0; attempt < 30; attempt++ {
		_, err := c.ELBv2.DeleteTargetGroup(ctx, &elbv2.DeleteTargetGroupInput{
			TargetGroupArn: aws.String(arn),
		})
		if err == nil || isNotFound(err) {
			return nil
		}
		if !isErrCode(err, "ResourceInUse") {
			return fmt.Errorf("failed to delete target group: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
	return fmt.Errorf("target group %s still in use after waiting", arn)
}
