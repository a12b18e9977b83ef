package provision

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/govready/escred/internal/log"
	"github.com/govready/escred/internal/ui"
)

// Tag applied to users this tool creates, so they can be traced back.
const (
	createdByTagKey   = "created-by"
	createdByTagValue = "govready:escred"
)

// EnsureUser creates the IAM user, tagged with a provenance marker and
// any extra tags from configuration. An EntityAlreadyExists answer is
// success: the existing user is reused and its tags are not touched.
func (p *Provisioner) EnsureUser(ctx context.Context, name string) error {
	tags := []iamtypes.Tag{{
		Key:   aws.String(createdByTagKey),
		Value: aws.String(createdByTagValue),
	}}
	keys := make([]string, 0, len(p.UserTags))
	for k := range p.UserTags {
		if k == createdByTagKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tags = append(tags, iamtypes.Tag{Key: aws.String(k), Value: aws.String(p.UserTags[k])})
	}

	_, err := p.IAM.CreateUser(ctx, &iam.CreateUserInput{
		UserName: aws.String(name),
		Tags:     tags,
	})
	if err != nil {
		if isEntityExists(err) {
			log.Debug("user exists, reusing", "user", name)
			return nil
		}
		return fmt.Errorf("creating user: %w", err)
	}

	ui.Infof("Created user %s.", name)
	return nil
}

// AttachPolicy attaches the policy to the user. Attaching an
// already-attached managed policy is a no-op on the IAM side, so this is
// safe to repeat.
func (p *Provisioner) AttachPolicy(ctx context.Context, user, policyARN string) error {
	if policyARN == "" {
		return fmt.Errorf("no policy ARN to attach")
	}
	_, err := p.IAM.AttachUserPolicy(ctx, &iam.AttachUserPolicyInput{
		UserName:  aws.String(user),
		PolicyArn: aws.String(policyARN),
	})
	if err != nil {
		return fmt.Errorf("attaching policy: %w", err)
	}
	return nil
}

// IssueAccessKey mints a new long-lived access key for the user. This is
// the one non-idempotent stage: every run creates another key, and IAM
// caps users at two, so old keys need pruning out of band.
func (p *Provisioner) IssueAccessKey(ctx context.Context, user string) (*Credentials, error) {
	out, err := p.IAM.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{
		UserName: aws.String(user),
	})
	if err != nil {
		return nil, fmt.Errorf("creating access key: %w", err)
	}
	log.Debug("issued access key", "user", user, "key_id", aws.ToString(out.AccessKey.AccessKeyId))
	return &Credentials{
		AccessKeyID:     aws.ToString(out.AccessKey.AccessKeyId),
		SecretAccessKey: aws.ToString(out.AccessKey.SecretAccessKey),
	}, nil
}
