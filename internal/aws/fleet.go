package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	asgtypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// EnsureFleet provides the auto-scaling group over the stack's public
// subnets and its CPU target-tracking policy. The cooldown debounces
// scaling actions so noisy load cannot cause oscillation.
func (c *Client) EnsureFleet(ctx context.Context, plan *stack.Plan, network pkgtypes.Network, template pkgtypes.LaunchTemplate) (pkgtypes.Fleet, error) {
	existing, err := c.findFleet(ctx, plan.Fleet.Name)
	if err != nil {
		return pkgtypes.Fleet{}, err
	}

	if existing == nil {
		cooldown := int32(plan.Fleet.Cooldown.Seconds())

		_, err = c.ASG.CreateAutoScalingGroup(ctx, &autoscaling.CreateAutoScalingGroupInput{
			AutoScalingGroupName: aws.String(plan.Fleet.Name),
			MinSize:              aws.Int32(int32(plan.Fleet.Min)),
			MaxSize:              aws.Int32(int32(plan.Fleet.Max)),
			DesiredCapacity:      aws.Int32(int32(plan.Fleet.Desired)),
			DefaultCooldown:      aws.Int32(cooldown),
			VPCZoneIdentifier:    aws.String(strings.Join(network.SubnetIDs(), ",")),
			LaunchTemplate: &asgtypes.LaunchTemplateSpecification{
				LaunchTemplateId: aws.String(template.ID),
				Version:          aws.String("$Latest"),
			},
			HealthCheckType:        aws.String("ELB"),
			HealthCheckGracePeriod: aws.Int32(300),
			Tags: []asgtypes.Tag{
				{Key: aws.String(stackTagKey), Value: aws.String(plan.Name), PropagateAtLaunch: aws.Bool(true)},
				{Key: aws.String("Name"), Value: aws.String(plan.Fleet.Name), PropagateAtLaunch: aws.Bool(true)},
			},
		})
		if err != nil {
			return pkgtypes.Fleet{}, fmt.Errorf("failed to create auto scaling group: %w", err)
		}

		_, err = c.ASG.PutScalingPolicy(ctx, &autoscaling.PutScalingPolicyInput{
			AutoScalingGroupName: aws.String(plan.Fleet.Name),
			PolicyName:           aws.String(plan.Fleet.Name + "-cpu"),
			PolicyType:           aws.String("TargetTrackingScaling"),
			TargetTrackingConfiguration: &asgtypes.TargetTrackingConfiguration{
				PredefinedMetricSpecification: &asgtypes.PredefinedMetricSpecification{
					PredefinedMetricType: asgtypes.MetricTypeASGAverageCPUUtilization,
				},
				TargetValue: aws.Float64(plan.Fleet.TargetCPU),
			},
			EstimatedInstanceWarmup: aws.Int32(cooldown),
		})
		if err != nil {
			return pkgtypes.Fleet{}, fmt.Errorf("failed to put scaling policy: %w", err)
		}

		existing, err = c.findFleet(ctx, plan.Fleet.Name)
		if err != nil {
			return pkgtypes.Fleet{}, err
		}
		if existing == nil {
			return pkgtypes.Fleet{}, fmt.Errorf("auto scaling group %q vanished after creation", plan.Fleet.Name)
		}
	}

	return toFleet(*existing), nil
}

// DescribeFleet returns the current fleet state including its instances
func (c *Client) DescribeFleet(ctx context.Context, name string) (*pkgtypes.Fleet, error) {
	group, err := c.findFleet(ctx, name)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, nil
	}

	fleet := toFleet(*group)
	return &fleet, nil
}

func (c *Client) findFleet(ctx context.Context, name string) (*asgtypes.AutoScalingGroup, error) {
	output, err := c.ASG.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: []string{name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe auto scaling groups: %w", err)
	}
	if len(output.AutoScalingGroups) == 0 {
		return nil, nil
	}
	return &output.AutoScalingGroups[0], nil
}

// toFleet converts an SDK Auto Scaling Group to our Fleet type
func toFleet(g asgtypes.AutoScalingGroup) pkgtypes.Fleet {
	fleet := pkgtypes.Fleet{
		Name:            deref(g.AutoScalingGroupName),
		ARN:             deref(g.AutoScalingGroupARN),
		MinSize:         int(deref32(g.MinSize)),
		MaxSize:         int(deref32(g.MaxSize)),
		DesiredCapacity: int(deref32(g.DesiredCapacity)),
		Cooldown:        time.Duration(deref32(g.DefaultCooldown)) * time.Second,
		InstanceCount:   len(g.Instances),
		AZs:             g.AvailabilityZones,
		CreatedTime:     derefTime(g.CreatedTime),
	}

	if g.LaunchTemplate != nil {
		fleet.LaunchTemplate = deref(g.LaunchTemplate.LaunchTemplateId)
	}

	for _, inst := range g.Instances {
		health := deref(inst.HealthStatus)
		if health == "Healthy" {
			fleet.HealthyCount++
		}
		fleet.Instances = append(fleet.Instances, pkgtypes.Instance{
			ID:     deref(inst.InstanceId),
			State:  string(inst.LifecycleState),
			Health: health,
			AZ:     deref(inst.AvailabilityZone),
		})
	}

	return fleet
}

// destroyFleet force-deletes the group and waits for it to drain; the
// network cannot come down while instances hold addresses in it
func (c *Client) destroyFleet(ctx context.Context, plan *stack.Plan) error {
	group, err := c.findFleet(ctx, plan.Fleet.Name)
	if err != nil {
		return err
	}
	if group == nil {
		return stack.ErrNotFound
	}

	_, err = c.ASG.DeleteAutoScalingGroup(ctx, &autoscaling.DeleteAutoScalingGroupInput{
		AutoScalingGroupName: aws.String(plan.Fleet.Name),
		ForceDelete:          aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete auto scaling group: %w", err)
	}

	for {
		group, err := c.findFleet(ctx, plan.Fleet.Name)
		if err != nil {
			return err
		}
		if group == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}
