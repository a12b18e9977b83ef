// Package secretstore optionally persists a minted key pair in AWS
// Secrets Manager, so the credentials land somewhere durable instead of
// only scrolling past on stdout.
package secretstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/govready/escred/internal/log"
	"github.com/govready/escred/internal/provision"
)

// SecretsAPI is the slice of the Secrets Manager API the store uses
// (enables testing with fakes).
type SecretsAPI interface {
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// Store saves the key pair under the named secret and returns its ARN.
// A new secret is created when the name is free; an existing secret gets
// a new version, so reruns rotate the stored value in step with the
// freshly minted key.
func Store(ctx context.Context, api SecretsAPI, name string, creds *provision.Credentials) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"AccessKeyId":     creds.AccessKeyID,
		"SecretAccessKey": creds.SecretAccessKey,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling secret payload: %w", err)
	}

	created, err := api.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(string(payload)),
		Description:  aws.String("Access key pair provisioned by escred"),
	})
	if err == nil {
		log.Debug("created secret", "name", name)
		return aws.ToString(created.ARN), nil
	}
	if !isSecretExists(err) {
		return "", fmt.Errorf("creating secret %s: %w", name, err)
	}

	put, err := api.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(string(payload)),
	})
	if err != nil {
		return "", fmt.Errorf("updating secret %s: %w", name, err)
	}
	log.Debug("updated existing secret", "name", name)
	return aws.ToString(put.ARN), nil
}

func isSecretExists(err error) bool {
	var exists *smtypes.ResourceExistsException
	if errors.As(err, &exists) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ResourceExistsException"
}
