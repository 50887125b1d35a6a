package aws

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// stackTags returns the tag set stamped on every EC2-family resource
func stackTags(stack, name string) []ec2types.Tag {
	return []ec2types.Tag{
		{Key: aws.String("Name"), Value: aws.String(name)},
		{Key: aws.String(stackTagKey), Value: aws.String(stack)},
	}
}

// tagSpec builds a TagSpecification for the given EC2 resource type
func tagSpec(resourceType ec2types.ResourceType, stack, name string) ec2types.TagSpecification {
	return ec2types.TagSpecification{
		ResourceType: resourceType,
		Tags:         stackTags(stack, name),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deref32(i *int32) int32 {
	if i == nil {
		return 0
	}
	return *i
}

func deref64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
