package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/hoverpad/hoverpad/internal/crypto"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

// SecretsManagerClient keeps the key that seals the session file in AWS
// Secrets Manager.
type SecretsManagerClient struct {
	client     SecretsManagerAPI
	secretName string

	mu  sync.Mutex
	key []byte
}

// NewSecretsManagerClient creates a new Secrets Manager client
func NewSecretsManagerClient(ctx context.Context, secretName, region string) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSecretsManagerClientWithAPI(secretsmanager.NewFromConfig(cfg), secretName), nil
}

// NewSecretsManagerClientWithAPI wires an existing client.
func NewSecretsManagerClientWithAPI(client SecretsManagerAPI, secretName string) *SecretsManagerClient {
	return &SecretsManagerClient{client: client, secretName: secretName}
}

// SealingKey returns the session sealing key, creating the secret on first
// use. The key is cached for the life of the client.
func (smc *SecretsManagerClient) SealingKey(ctx context.Context) ([]byte, error) {
	smc.mu.Lock()
	defer smc.mu.Unlock()

	if smc.key != nil {
		return smc.key, nil
	}

	key, err := smc.getOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	smc.key = key
	return key, nil
}

func (smc *SecretsManagerClient) getOrCreate(ctx context.Context) ([]byte, error) {
	result, err := smc.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(smc.secretName),
	})
	if err != nil {
		if isNotFound(err) {
			return smc.create(ctx)
		}
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", smc.secretName)
	}

	key, err := base64.StdEncoding.DecodeString(*result.SecretString)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret: %w", err)
	}
	if len(key) != crypto.SealKeySize {
		return nil, fmt.Errorf("secret %s holds a %d byte key, want %d", smc.secretName, len(key), crypto.SealKeySize)
	}

	return key, nil
}

func (smc *SecretsManagerClient) create(ctx context.Context) ([]byte, error) {
	key, err := crypto.GenerateSealingKey()
	if err != nil {
		return nil, err
	}

	_, err = smc.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(smc.secretName),
		SecretString: aws.String(base64.StdEncoding.EncodeToString(key)),
		Description:  aws.String("hoverpad key sealing the temporary session file"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create secret: %w", err)
	}

	return key, nil
}

// IsAvailable checks if Secrets Manager is reachable. A missing secret still
// counts as available.
func (smc *SecretsManagerClient) IsAvailable(ctx context.Context) bool {
	_, err := smc.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(smc.secretName),
	})
	return err == nil || isNotFound(err)
}

func isNotFound(err error) bool {
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return true
	}
	var coded interface{ ErrorCode() string }
	return errors.As(err, &coded) && coded.ErrorCode() == "ResourceNotFoundException"
}
