package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "test"}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(apiError("InvalidVpcID.NotFound")))
	assert.True(t, isNotFound(apiError("NoSuchEntity")))
	assert.True(t, isNotFound(apiError("LoadBalancerNotFound")))
	assert.True(t, isNotFound(apiError("DBInstanceNotFound")))
	assert.True(t, isNotFound(apiError("ParameterNotFound")))

	assert.False(t, isNotFound(apiError("AccessDenied")))
	assert.False(t, isNotFound(errors.New("plain error")))
	assert.False(t, isNotFound(nil))
}

func TestIsNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("failed to describe VPC: %w", apiError("InvalidVpcID.NotFound"))
	assert.True(t, isNotFound(err))
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(apiError("InvalidPermission.Duplicate")))
	assert.True(t, isDuplicate(apiError("EntityAlreadyExists")))
	assert.True(t, isDuplicate(apiError("ResourceExistsException")))
	assert.True(t, isDuplicate(apiError("DuplicateLoadBalancerName")))

	assert.False(t, isDuplicate(apiError("Throttling")))
	assert.False(t, isDuplicate(errors.New("plain error")))
}

func TestDerefHelpers(t *testing.T) {
	s := "vpc-1"
	assert.Equal(t, "vpc-1", deref(&s))
	assert.Equal(t, "", deref(nil))

	n := int32(3)
	assert.Equal(t, int32(3), deref32(&n))
	assert.Equal(t, int32(0), deref32(nil))
}
