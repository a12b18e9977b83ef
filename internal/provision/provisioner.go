package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/govready/escred/internal/ui"
)

// Defaults for the target AWS environment.
const (
	DefaultRegion    = "us-east-1"
	DefaultPartition = "aws"
)

// Request describes what a single run should ensure exists.
type Request struct {
	Bucket string // bucket name (required)
	Policy string // policy name (required)
	Access string // access mode r/w/rw (required only when the policy must be created)
	User   string // user name (required to reach the user and key stages)
}

// Validate checks the fields that every run needs up front. The access
// mode is validated later, only if a policy actually has to be created.
func (r Request) Validate() error {
	if r.Bucket == "" {
		return fmt.Errorf("bucket name is required")
	}
	if r.Policy == "" {
		return fmt.Errorf("policy name is required")
	}
	return nil
}

// Credentials is the access key pair minted for the user.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// ExportLines renders the key pair in the shell-export format emitted on
// stdout. The Windows hint line matches what consumers of this tool
// already scrape for.
func (c *Credentials) ExportLines() string {
	return fmt.Sprintf("# for Windows, use 'set' instead of 'export'\n"+
		"export AWS_ACCESS_KEY_ID=%s\n"+
		"export AWS_SECRET_ACCESS_KEY=%s\n",
		c.AccessKeyID, c.SecretAccessKey)
}

// Identity is the caller identity resolved from STS, used only for a
// startup diagnostic.
type Identity struct {
	Account string
	ARN     string
}

// ShortARN strips the account-scoped IAM prefix from the caller ARN,
// leaving e.g. "user/alice" or "assumed-role/Deploy/ci".
func (id Identity) ShortARN() string {
	if i := strings.Index(id.ARN, ":"+id.Account+":"); i >= 0 {
		return id.ARN[i+len(id.Account)+2:]
	}
	return id.ARN
}

// Provisioner runs the reconciliation pipeline against the AWS control
// plane. Client fields are interfaces so tests can inject fakes.
type Provisioner struct {
	S3  S3API
	IAM IAMAPI
	STS STSCallerIdentity

	Region    string
	Partition string

	// UserTags are added to the created-by tag on new users.
	UserTags map[string]string
}

// NewFromConfig builds a Provisioner with real service clients.
func NewFromConfig(cfg aws.Config) *Provisioner {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	return &Provisioner{
		S3:        s3.NewFromConfig(cfg),
		IAM:       iam.NewFromConfig(cfg),
		STS:       sts.NewFromConfig(cfg),
		Region:    region,
		Partition: DefaultPartition,
	}
}

// Run executes the pipeline: identity diagnostic, bucket, policy, user,
// attachment, access key. It short-circuits on the first failure and
// never rolls back stages that already succeeded.
//
// When the request names no user, the run stops after the policy stage
// and returns nil credentials.
func (p *Provisioner) Run(ctx context.Context, req Request) (*Credentials, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id, err := p.CallerIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving caller identity: %w", err)
	}
	ui.Infof("Using account #%s, %q.", id.Account, id.ShortARN())

	if err := p.EnsureBucket(ctx, req.Bucket); err != nil {
		return nil, fmt.Errorf("bucket %s: %w", req.Bucket, err)
	}

	arn, err := p.EnsurePolicy(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", req.Policy, err)
	}

	if req.User == "" {
		ui.Warnf("no user given; skipping user, attachment, and access key stages")
		return nil, nil
	}

	if err := p.EnsureUser(ctx, req.User); err != nil {
		return nil, fmt.Errorf("user %s: %w", req.User, err)
	}

	if err := p.AttachPolicy(ctx, req.User, arn); err != nil {
		return nil, fmt.Errorf("attaching policy to %s: %w", req.User, err)
	}

	creds, err := p.IssueAccessKey(ctx, req.User)
	if err != nil {
		return nil, fmt.Errorf("access key for %s: %w", req.User, err)
	}
	return creds, nil
}

// CallerIdentity fetches the STS caller identity.
func (p *Provisioner) CallerIdentity(ctx context.Context) (Identity, error) {
	out, err := p.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
	}, nil
}
