package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSManager reads secrets from AWS Secrets Manager. The secret id is prefix+key.
type AWSManager struct {
	client SecretsManagerAPI
	prefix string
}

// NewAWSManager wraps an existing Secrets Manager client.
func NewAWSManager(client SecretsManagerAPI, prefix string) *AWSManager {
	return &AWSManager{client: client, prefix: prefix}
}

// LoadAWSManager builds a client from the default AWS credential chain.
func LoadAWSManager(ctx context.Context, region, prefix string) (*AWSManager, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewAWSManager(secretsmanager.NewFromConfig(awsCfg), prefix), nil
}

// GetSecret fetches the current string value of the secret.
func (m *AWSManager) GetSecret(ctx context.Context, key string) (string, error) {
	id := m.prefix + key
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%s: %w", id, ErrSecretNotFound)
		}
		return "", fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("%s: %w", id, ErrSecretNotFound)
	}
	return *out.SecretString, nil
}
