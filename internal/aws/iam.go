package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// ec2AssumeRolePolicy lets EC2 instances assume the role
const ec2AssumeRolePolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Action": "sts:AssumeRole",
    "Effect": "Allow",
    "Principal": {
      "Service": "ec2.amazonaws.com"
    }
  }]
}`

// EnsureIdentityRole provides the instance role with its single managed
// capability and the instance profile that binds it to instances.
// Least-privilege invariant: only the policy ARNs from the plan are ever
// attached.
func (c *Client) EnsureIdentityRole(ctx context.Context, plan *stack.Plan) (pkgtypes.Role, error) {
	role := pkgtypes.Role{
		Name:        plan.Role.Name,
		ProfileName: plan.Role.ProfileName,
	}

	existing, err := c.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(plan.Role.Name)})
	switch {
	case err == nil:
		role.ARN = deref(existing.Role.Arn)
	case isNotFound(err):
		created, err := c.IAM.CreateRole(ctx, &iam.CreateRoleInput{
			RoleName:                 aws.String(plan.Role.Name),
			AssumeRolePolicyDocument: aws.String(ec2AssumeRolePolicy),
			Description:              aws.String("Instance role for the " + plan.Name + " stack"),
		})
		if err != nil {
			return pkgtypes.Role{}, fmt.Errorf("failed to create role: %w", err)
		}
		role.ARN = deref(created.Role.Arn)
	default:
		return pkgtypes.Role{}, fmt.Errorf("failed to get role: %w", err)
	}

	attached, err := c.IAM.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(plan.Role.Name),
	})
	if err != nil {
		return pkgtypes.Role{}, fmt.Errorf("failed to list attached policies: %w", err)
	}
	have := make(map[string]bool, len(attached.AttachedPolicies))
	for _, p := range attached.AttachedPolicies {
		have[deref(p.PolicyArn)] = true
	}

	for _, arn := range plan.Role.PolicyARNs {
		if have[arn] {
			role.Policies = append(role.Policies, arn)
			continue
		}
		_, err := c.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  aws.String(plan.Role.Name),
			PolicyArn: aws.String(arn),
		})
		if err != nil {
			return pkgtypes.Role{}, fmt.Errorf("failed to attach policy %s: %w", arn, err)
		}
		role.Policies = append(role.Policies, arn)
	}

	profile, err := c.IAM.GetInstanceProfile(ctx, &iam.GetInstanceProfileInput{
		InstanceProfileName: aws.String(plan.Role.ProfileName),
	})
	switch {
	case err == nil:
		role.ProfileARN = deref(profile.InstanceProfile.Arn)
		for _, r := range profile.InstanceProfile.Roles {
			if deref(r.RoleName) == plan.Role.Name {
				return role, nil
			}
		}
	case isNotFound(err):
		created, err := c.IAM.CreateInstanceProfile(ctx, &iam.CreateInstanceProfileInput{
			InstanceProfileName: aws.String(plan.Role.ProfileName),
		})
		if err != nil {
			return pkgtypes.Role{}, fmt.Errorf("failed to create instance profile: %w", err)
		}
		role.ProfileARN = deref(created.InstanceProfile.Arn)
	default:
		return pkgtypes.Role{}, fmt.Errorf("failed to get instance profile: %w", err)
	}

	_, err = c.IAM.AddRoleToInstanceProfile(ctx, &iam.AddRoleToInstanceProfileInput{
		InstanceProfileName: aws.String(plan.Role.ProfileName),
		RoleName:            aws.String(plan.Role.Name),
	})
	if err != nil && !isDuplicate(err) {
		return pkgtypes.Role{}, fmt.Errorf("failed to add role to instance profile: %w", err)
	}

	return role, nil
}

// destroyIdentityRole unwinds the profile and role
func (c *Client) destroyIdentityRole(ctx context.Context, plan *stack.Plan) error {
	found := false

	_, err := c.IAM.RemoveRoleFromInstanceProfile(ctx, &iam.RemoveRoleFromInstanceProfileInput{
		InstanceProfileName: aws.String(plan.Role.ProfileName),
		RoleName:            aws.String(plan.Role.Name),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove role from instance profile: %w", err)
	}

	_, err = c.IAM.DeleteInstanceProfile(ctx, &iam.DeleteInstanceProfileInput{
		InstanceProfileName: aws.String(plan.Role.ProfileName),
	})
	if err == nil {
		found = true
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to delete instance profile: %w", err)
	}

	for _, arn := range plan.Role.PolicyARNs {
		_, err = c.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  aws.String(plan.Role.Name),
			PolicyArn: aws.String(arn),
		})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to detach policy %s: %w", arn, err)
		}
	}

	_, err = c.IAM.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(plan.Role.Name)})
	if err == nil {
		found = true
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	if !found {
		return stack.ErrNotFound
	}
	return nil
}
