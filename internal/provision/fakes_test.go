package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// fakeS3 implements S3API against an in-memory bucket set.
type fakeS3 struct {
	buckets map[string]bool

	headErr error // overrides the normal HeadBucket answer
	pabErr  error // forces PutPublicAccessBlock to fail

	headCalls   int
	createCalls int
	pabCalls    int

	lastCreate *s3.CreateBucketInput
	lastPAB    *s3.PutPublicAccessBlockInput
}

func newFakeS3(buckets ...string) *fakeS3 {
	f := &fakeS3{buckets: map[string]bool{}}
	for _, b := range buckets {
		f.buckets[b] = true
	}
	return f
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.headCalls++
	if f.headErr != nil {
		return nil, f.headErr
	}
	if f.buckets[aws.ToString(params.Bucket)] {
		return &s3.HeadBucketOutput{}, nil
	}
	return nil, &s3types.NotFound{Message: aws.String("Not Found")}
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createCalls++
	f.lastCreate = params
	f.buckets[aws.ToString(params.Bucket)] = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutPublicAccessBlock(ctx context.Context, params *s3.PutPublicAccessBlockInput, optFns ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error) {
	f.pabCalls++
	f.lastPAB = params
	if f.pabErr != nil {
		return nil, f.pabErr
	}
	return &s3.PutPublicAccessBlockOutput{}, nil
}

// fakeIAM implements IAMAPI with in-memory policies and users.
type fakeIAM struct {
	policies map[string]string // name -> ARN
	users    map[string]bool

	listCalls         int
	createPolicyCalls int
	createUserCalls   int
	attachCalls       int
	keyCalls          int

	lastPolicyDoc string
	lastUserTags  []iamtypes.Tag
	attachedARNs  []string
}

func newFakeIAM() *fakeIAM {
	return &fakeIAM{policies: map[string]string{}, users: map[string]bool{}}
}

func (f *fakeIAM) ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	f.listCalls++
	out := &iam.ListPoliciesOutput{}
	for name, arn := range f.policies {
		out.Policies = append(out.Policies, iamtypes.Policy{
			PolicyName: aws.String(name),
			Arn:        aws.String(arn),
		})
	}
	return out, nil
}

func (f *fakeIAM) CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	f.createPolicyCalls++
	name := aws.ToString(params.PolicyName)
	f.lastPolicyDoc = aws.ToString(params.PolicyDocument)
	arn := "arn:aws:iam::123456789012:policy/" + name
	f.policies[name] = arn
	return &iam.CreatePolicyOutput{
		Policy: &iamtypes.Policy{PolicyName: params.PolicyName, Arn: aws.String(arn)},
	}, nil
}

func (f *fakeIAM) CreateUser(ctx context.Context, params *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error) {
	f.createUserCalls++
	name := aws.ToString(params.UserName)
	if f.users[name] {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: aws.String("User already exists")}
	}
	f.users[name] = true
	f.lastUserTags = params.Tags
	return &iam.CreateUserOutput{
		User: &iamtypes.User{UserName: params.UserName},
	}, nil
}

func (f *fakeIAM) AttachUserPolicy(ctx context.Context, params *iam.AttachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachUserPolicyOutput, error) {
	f.attachCalls++
	f.attachedARNs = append(f.attachedARNs, aws.ToString(params.PolicyArn))
	return &iam.AttachUserPolicyOutput{}, nil
}

func (f *fakeIAM) CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error) {
	f.keyCalls++
	return &iam.CreateAccessKeyOutput{
		AccessKey: &iamtypes.AccessKey{
			AccessKeyId:     aws.String(fmt.Sprintf("AKIAFAKE%08d", f.keyCalls)),
			SecretAccessKey: aws.String(fmt.Sprintf("secret-%d", f.keyCalls)),
			UserName:        params.UserName,
		},
	}, nil
}

// fakeSTS implements STSCallerIdentity.
type fakeSTS struct {
	account string
	arn     string
	err     error
	calls   int
}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.account),
		Arn:     aws.String(f.arn),
	}, nil
}

// newTestProvisioner wires the fakes into a Provisioner with defaults.
func newTestProvisioner(s3f *fakeS3, iamf *fakeIAM) *Provisioner {
	return &Provisioner{
		S3:        s3f,
		IAM:       iamf,
		STS:       &fakeSTS{account: "123456789012", arn: "arn:aws:iam::123456789012:user/admin"},
		Region:    DefaultRegion,
		Partition: DefaultPartition,
	}
}
