package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/hoverpad/hoverpad/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsManager struct {
	secrets map[string]string
	getErr  error
	gets    int
	creates int
}

func newFakeSecretsManager() *fakeSecretsManager {
	return &fakeSecretsManager{secrets: map[string]string{}}
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func (f *fakeSecretsManager) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.creates++
	f.secrets[aws.ToString(params.Name)] = aws.ToString(params.SecretString)
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

func TestSealingKey_CreatesWhenMissing(t *testing.T) {
	fake := newFakeSecretsManager()
	smc := NewSecretsManagerClientWithAPI(fake, "hoverpad/session-key")

	key, err := smc.SealingKey(context.Background())
	require.NoError(t, err)
	assert.Len(t, key, crypto.SealKeySize)
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, base64.StdEncoding.EncodeToString(key), fake.secrets["hoverpad/session-key"])
}

func TestSealingKey_ReadsExisting(t *testing.T) {
	fake := newFakeSecretsManager()
	want := make([]byte, crypto.SealKeySize)
	want[0] = 7
	fake.secrets["k"] = base64.StdEncoding.EncodeToString(want)

	key, err := NewSecretsManagerClientWithAPI(fake, "k").SealingKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, key)
	assert.Zero(t, fake.creates)
}

func TestSealingKey_Cached(t *testing.T) {
	fake := newFakeSecretsManager()
	smc := NewSecretsManagerClientWithAPI(fake, "k")

	first, err := smc.SealingKey(context.Background())
	require.NoError(t, err)
	second, err := smc.SealingKey(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.gets)
}

func TestSealingKey_WrongSize(t *testing.T) {
	fake := newFakeSecretsManager()
	fake.secrets["k"] = base64.StdEncoding.EncodeToString([]byte("short"))

	_, err := NewSecretsManagerClientWithAPI(fake, "k").SealingKey(context.Background())
	require.Error(t, err)
}

func TestSealingKey_ClientError(t *testing.T) {
	fake := newFakeSecretsManager()
	fake.getErr = errors.New("access denied")

	_, err := NewSecretsManagerClientWithAPI(fake, "k").SealingKey(context.Background())
	require.Error(t, err)
	assert.Zero(t, fake.creates)
}

func TestIsAvailable(t *testing.T) {
	fake := newFakeSecretsManager()
	smc := NewSecretsManagerClientWithAPI(fake, "k")
	assert.True(t, smc.IsAvailable(context.Background()))

	fake.getErr = errors.New("no route")
	assert.False(t, smc.IsAvailable(context.Background()))
}
