// Package policy builds IAM policy documents scoped to a single S3 bucket.
//
// A document has two statements: a fixed allow on s3:ListAllMyBuckets so
// console users can navigate to the bucket, and a bucket-scoped statement
// whose action set depends on the requested access mode (read, write, or
// both). Render constructs a fresh document on every call; callers never
// share or mutate a template.
package policy

import (
	"encoding/json"
	"fmt"
)

// Access modes recognized by Render.
const (
	ModeRead      = "r"
	ModeWrite     = "w"
	ModeReadWrite = "rw"
)

// Version is the IAM policy language version.
const Version = "2012-10-17"

// Document is an IAM policy document in its JSON wire format.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is a single entry in a policy document.
type Statement struct {
	Sid      string   `json:"Sid,omitempty"`
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

var readActions = []string{
	"s3:ListBucket",
	"s3:GetObject",
	"s3:GetObjectAcl",
	"s3:GetObjectTagging",
}

var writeActions = []string{
	"s3:ListBucket",
	"s3:PutObject",
	"s3:PutObjectAcl",
	"s3:PutObjectTagging",
}

// actionsForMode returns the action set for an access mode, or nil if the
// mode is not recognized.
func actionsForMode(mode string) []string {
	switch mode {
	case ModeRead:
		return append([]string(nil), readActions...)
	case ModeWrite:
		return append([]string(nil), writeActions...)
	case ModeReadWrite:
		actions := append([]string(nil), readActions...)
		for _, a := range writeActions[1:] { // skip duplicate ListBucket
			actions = append(actions, a)
		}
		return actions
	default:
		return nil
	}
}

// ValidMode reports whether mode is one of r, w, or rw.
func ValidMode(mode string) bool {
	return actionsForMode(mode) != nil
}

// Render returns a new policy document granting the given access mode on
// the named bucket. The bucket statement covers both the bucket ARN and
// its objects (ARN/*). The partition is usually "aws"; aws-cn and
// aws-us-gov deployments pass theirs.
func Render(mode, partition, bucket string) (*Document, error) {
	actions := actionsForMode(mode)
	if actions == nil {
		return nil, fmt.Errorf("invalid access mode %q: must be one of r, w, or rw", mode)
	}

	bucketARN := fmt.Sprintf("arn:%s:s3:::%s", partition, bucket)
	return &Document{
		Version: Version,
		Statement: []Statement{
			{
				Sid:      "ListAllBuckets",
				Effect:   "Allow",
				Action:   []string{"s3:ListAllMyBuckets"},
				Resource: []string{"*"},
			},
			{
				Sid:      "BucketAccess",
				Effect:   "Allow",
				Action:   actions,
				Resource: []string{bucketARN + "/*", bucketARN},
			},
		},
	}, nil
}

// JSON serializes the document for the IAM CreatePolicy call.
func (d *Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshaling policy document: %w", err)
	}
	return string(b), nil
}
