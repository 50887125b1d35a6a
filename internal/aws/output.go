package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

func endpointParameter(stackName string) string {
	return "/" + stackName + "/endpoint"
}

// publishEndpoint exports the load balancer's public DNS name as an SSM
// parameter so other tooling can read it without parsing CLI output
func (c *Client) publishEndpoint(ctx context.Context, stackName, dnsName string) error {
	_, err := c.SSM.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(endpointParameter(stackName)),
		Value:     aws.String(dnsName),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to publish endpoint parameter: %w", err)
	}
	return nil
}

// ReadEndpoint returns the published endpoint, or empty when the stack
// has not been applied
func (c *Client) ReadEndpoint(ctx context.Context, stackName string) (string, error) {
	output, err := c.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(endpointParameter(stackName)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read endpoint parameter: %w", err)
	}
	return deref(output.Parameter.Value), nil
}

func (c *Client) unpublishEndpoint(ctx context.Context, stackName string) error {
	_, err := c.SSM.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(endpointParameter(stackName)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete endpoint parameter: %w", err)
	}
	return nil
}
