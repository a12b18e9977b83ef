package provision

import (
	"errors"

	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// isBucketNotFound reports whether err is the "bucket does not exist"
// answer from HeadBucket. The SDK models it as types.NotFound, but some
// S3-compatible endpoints only return the bare 404 error code.
func isBucketNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NotFound", "NoSuchBucket", "404":
			return true
		}
	}
	return false
}

// isEntityExists reports whether err is IAM's EntityAlreadyExists, which
// user creation treats as success.
func isEntityExists(err error) bool {
	var exists *iamtypes.EntityAlreadyExistsException
	if errors.As(err, &exists) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "EntityAlreadyExists"
}
