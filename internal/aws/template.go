package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// ssmImagePrefix marks a machine image reference resolved through an SSM
// public parameter instead of a literal AMI ID, e.g.
// ssm:/aws/service/canonical/ubuntu/server/22.04/stable/current/amd64/hvm/ebs-gp2/ami-id
const ssmImagePrefix = "ssm:"

// EnsureLaunchTemplate provides the immutable instance specification:
// image, size class, access policy, identity, and the first-boot script.
// A changed script requires replacing the template and cycling instances;
// this implementation reuses an existing template untouched, matching the
// declare-once model.
func (c *Client) EnsureLaunchTemplate(ctx context.Context, plan *stack.Plan, policy pkgtypes.AccessPolicy, role pkgtypes.Role, script string) (pkgtypes.LaunchTemplate, error) {
	existing, err := c.EC2.DescribeLaunchTemplates(ctx, &ec2.DescribeLaunchTemplatesInput{
		LaunchTemplateNames: []string{plan.Template.Name},
	})
	if err == nil && len(existing.LaunchTemplates) > 0 {
		lt := existing.LaunchTemplates[0]
		return pkgtypes.LaunchTemplate{
			ID:           deref(lt.LaunchTemplateId),
			Name:         deref(lt.LaunchTemplateName),
			Version:      deref64(lt.LatestVersionNumber),
			ImageID:      plan.Template.ImageID,
			InstanceType: plan.Template.InstanceType,
			PolicyID:     policy.ID,
			ProfileName:  role.ProfileName,
		}, nil
	}
	if err != nil && !isNotFound(err) {
		return pkgtypes.LaunchTemplate{}, fmt.Errorf("failed to describe launch templates: %w", err)
	}

	imageID, err := c.resolveImage(ctx, plan.Template.ImageID)
	if err != nil {
		return pkgtypes.LaunchTemplate{}, err
	}

	created, err := c.EC2.CreateLaunchTemplate(ctx, &ec2.CreateLaunchTemplateInput{
		LaunchTemplateName: aws.String(plan.Template.Name),
		LaunchTemplateData: &ec2types.RequestLaunchTemplateData{
			ImageId:          aws.String(imageID),
			InstanceType:     ec2types.InstanceType(plan.Template.InstanceType),
			SecurityGroupIds: []string{policy.ID},
			IamInstanceProfile: &ec2types.LaunchTemplateIamInstanceProfileSpecificationRequest{
				Name: aws.String(role.ProfileName),
			},
			UserData: aws.String(base64.StdEncoding.EncodeToString([]byte(script))),
		},
		TagSpecifications: []ec2types.TagSpecification{
			tagSpec(ec2types.ResourceTypeLaunchTemplate, plan.Name, plan.Template.Name),
		},
	})
	if err != nil {
		return pkgtypes.LaunchTemplate{}, fmt.Errorf("failed to create launch template: %w", err)
	}

	lt := created.LaunchTemplate
	return pkgtypes.LaunchTemplate{
		ID:           deref(lt.LaunchTemplateId),
		Name:         deref(lt.LaunchTemplateName),
		Version:      deref64(lt.LatestVersionNumber),
		ImageID:      imageID,
		InstanceType: plan.Template.InstanceType,
		PolicyID:     policy.ID,
		ProfileName:  role.ProfileName,
	}, nil
}

// resolveImage turns an image reference into an AMI ID. Literal IDs pass
// through; ssm: references are read from the parameter store.
func (c *Client) resolveImage(ctx context.Context, ref string) (string, error) {
	if !strings.HasPrefix(ref, ssmImagePrefix) {
		return ref, nil
	}

	name := strings.TrimPrefix(ref, ssmImagePrefix)
	output, err := c.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve image parameter %s: %w", name, err)
	}
	return deref(output.Parameter.Value), nil
}

func (c *Client) destroyLaunchTemplate(ctx context.Context, plan *stack.Plan) error {
	_, err := c.EC2.DeleteLaunchTemplate(ctx, &ec2.DeleteLaunchTemplateInput{
		LaunchTemplateName: aws.String(plan.Template.Name),
	})
	if isNotFound(err) {
		return stack.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete launch template: %w", err)
	}
	return nil
}
