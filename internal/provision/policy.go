package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/govready/escred/internal/log"
	"github.com/govready/escred/internal/policy"
	"github.com/govready/escred/internal/ui"
)

// EnsurePolicy finds the named customer-managed policy or creates it from
// the access-mode template, and returns its ARN.
//
// An existing policy wins regardless of the requested access mode: the
// document is never inspected or updated, so a rerun with a different
// --access keeps whatever the policy already grants. A warning flags the
// ignored flag when that happens.
func (p *Provisioner) EnsurePolicy(ctx context.Context, req Request) (string, error) {
	out, err := p.IAM.ListPolicies(ctx, &iam.ListPoliciesInput{
		Scope: iamtypes.PolicyScopeTypeLocal,
	})
	if err != nil {
		return "", fmt.Errorf("listing policies: %w", err)
	}
	// TODO: follow Marker when an account has more than one page of
	// local policies.
	for _, pol := range out.Policies {
		if aws.ToString(pol.PolicyName) == req.Policy {
			arn := aws.ToString(pol.Arn)
			if req.Access != "" {
				ui.Warnf("--access %s ignored: policy %s already exists. Attaching existing policy.", req.Access, req.Policy)
			}
			log.Debug("policy exists, reusing", "policy", req.Policy, "arn", arn)
			return arn, nil
		}
	}

	doc, err := policy.Render(req.Access, p.Partition, req.Bucket)
	if err != nil {
		return "", err
	}
	body, err := doc.JSON()
	if err != nil {
		return "", err
	}

	created, err := p.IAM.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(req.Policy),
		PolicyDocument: aws.String(body),
		Description:    aws.String(fmt.Sprintf("Grants %s access to bucket %s", req.Access, req.Bucket)),
	})
	if err != nil {
		return "", fmt.Errorf("creating policy: %w", err)
	}

	arn := aws.ToString(created.Policy.Arn)
	ui.Infof("Created policy %s.", req.Policy)
	return arn, nil
}
