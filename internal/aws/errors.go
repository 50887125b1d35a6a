package aws

import (
	"errors"

	"github.com/aws/smithy-go"
)

// isErrCode reports whether err is an AWS API error with one of the
// given codes
func isErrCode(err error, codes ...string) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	for _, code := range codes {
		if ae.ErrorCode() == code {
			return true
		}
	}
	return false
}

// isNotFound covers the NotFound spellings of the services this backend
// talks to
func isNotFound(err error) bool {
	return isErrCode(err,
		"InvalidVpcID.NotFound",
		"InvalidGroup.NotFound",
		"InvalidSubnetID.NotFound",
		"InvalidLaunchTemplateName.NotFoundException",
		"InvalidInternetGatewayID.NotFound",
		"NoSuchEntity",
		"LoadBalancerNotFound",
		"TargetGroupNotFound",
		"ListenerNotFound",
		"DBInstanceNotFound",
		"DBSubnetGroupNotFoundFault",
		"ResourceNotFoundException",
		"ParameterNotFound",
	)
}

// isDuplicate covers the already-exists spellings; Ensure calls treat
// them as success on races between lookup and create
func isDuplicate(err error) bool {
	return isErrCode(err,
		"InvalidPermission.Duplicate",
		"EntityAlreadyExists",
		"RouteAlreadyExists",
		"Resource.AlreadyAssociated",
		"DBSubnetGroupAlreadyExists",
		"ResourceExistsException",
		"DuplicateLoadBalancerName",
		"DuplicateTargetGroupName",
		"DuplicateListener",
		"AlreadyExists",
	)
}
