package awsremediation

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/apperr"
)

// API error codes that mean the addressed resource does not exist.
var notFoundCodes = map[string]struct{}{
	"NoSuchEntity":            {},
	"DBInstanceNotFound":      {},
	"DBInstanceNotFoundFault": {},
	"NoSuchBucket":            {},
}

// codeNoPublicAccessBlock is returned by GetPublicAccessBlock for a bucket
// that has never had Block Public Access configured.
const codeNoPublicAccessBlock = "NoSuchPublicAccessBlockConfiguration"

// classify wraps a failed SDK call as NOT_FOUND or PROVIDER_ERROR.
func classify(op, resource string, err error) error {
	if _, ok := notFoundCodes[apiErrorCode(err)]; ok {
		return apperr.NotFound(op, resource, err)
	}
	return apperr.Provider(op, resource, err)
}

// apiErrorCode returns the service error code carried by err, or "".
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
