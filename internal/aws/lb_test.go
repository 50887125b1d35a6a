package aws

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/stretchr/testify/assert"
)

func TestToTargetGroup(t *testing.T) {
	group := toTargetGroup(elbv2types.TargetGroup{
		TargetGroupName:            aws.String("catalog-web"),
		TargetGroupArn:             aws.String("arn:aws:elasticloadbalancing:eu-west-1:123456789012:targetgroup/catalog-web/abc"),
		Protocol:                   elbv2types.ProtocolEnumHttp,
		Port:                       aws.Int32(80),
		VpcId:                      aws.String("vpc-1"),
		HealthCheckPath:            aws.String("/products"),
		HealthCheckIntervalSeconds: aws.Int32(30),
		HealthCheckTimeoutSeconds:  aws.Int32(5),
		HealthyThresholdCount:      aws.Int32(5),
		UnhealthyThresholdCount:    aws.Int32(2),
	})

	assert.Equal(t, "catalog-web", group.Name)
	assert.Equal(t, "HTTP", group.Protocol)
	assert.Equal(t, 80, group.Port)
	assert.Equal(t, "vpc-1", group.VPCID)
	assert.Equal(t, "/products", group.HealthCheckPath)
	assert.Equal(t, 30*time.Second, group.HealthCheckInterval)
	assert.Equal(t, 5*time.Second, group.HealthCheckTimeout)
	assert.Equal(t, 5, group.HealthyThreshold)
	assert.Equal(t, 2, group.UnhealthyThreshold)
}

func TestToTargetGroup_EmptyFields(t *testing.T) {
	group := toTargetGroup(elbv2types.TargetGroup{})

	assert.Empty(t, group.Name)
	assert.Zero(t, group.Port)
	assert.Zero(t, group.HealthCheckInterval)
}
