package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/govready/escred/internal/log"
	"github.com/govready/escred/internal/ui"
)

// EnsureBucket checks for the bucket and creates it when absent, then
// applies a full public access block to the new bucket. An existing
// bucket is left untouched, public-access settings included.
//
// Creation and the public access block are two calls; if the second
// fails the bucket stays created and unprotected. The returned error
// says so rather than papering over it.
func (p *Provisioner) EnsureBucket(ctx context.Context, name string) error {
	_, err := p.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		log.Debug("bucket exists, reusing", "bucket", name)
		return nil
	}
	if !isBucketNotFound(err) {
		return fmt.Errorf("checking bucket: %w", err)
	}

	in := &s3.CreateBucketInput{
		Bucket: aws.String(name),
		ACL:    s3types.BucketCannedACLPrivate,
	}
	// us-east-1 rejects an explicit LocationConstraint.
	if p.Region != DefaultRegion {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(p.Region),
		}
	}
	if _, err := p.S3.CreateBucket(ctx, in); err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}

	_, err = p.S3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(name),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			IgnorePublicAcls:      aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("bucket created but applying public access block failed: %w", err)
	}

	ui.Infof("Created bucket %s in %s.", name, p.Region)
	return nil
}
