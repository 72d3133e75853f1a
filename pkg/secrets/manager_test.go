package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraatlas/backend/config"
)

type fakeSecretsAPI struct {
	secretsmanageriface.SecretsManagerAPI
	values map[string]string
	calls  int
}

func (f *fakeSecretsAPI) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[aws.StringValue(in.SecretId)]
	if !ok {
		return nil, awserr.New(secretsmanager.ErrCodeResourceNotFoundException, "not found", nil)
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestNewManager(t *testing.T) {
	m, err := NewManager(Config{Backend: BackendEnv})
	require.NoError(t, err)
	assert.IsType(t, &EnvironmentManager{}, m)

	_, err = NewManager(Config{Backend: "vault"})
	assert.ErrorContains(t, err, "unsupported secrets backend")
}

func TestEnvironmentManager(t *testing.T) {
	t.Setenv("DSS_TEST_SECRET", "s3cret")
	t.Setenv("DSS_TEST_JSON", `{"user":"fra","port":5432}`)
	m := NewEnvironmentManager(Config{CacheDuration: time.Minute})
	ctx := context.Background()

	v, err := m.GetSecret(ctx, "DSS_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	// cached values survive environment changes until refreshed
	t.Setenv("DSS_TEST_SECRET", "rotated")
	v, _ = m.GetSecret(ctx, "DSS_TEST_SECRET")
	assert.Equal(t, "s3cret", v)
	require.NoError(t, m.RefreshCache(ctx))
	v, _ = m.GetSecret(ctx, "DSS_TEST_SECRET")
	assert.Equal(t, "rotated", v)

	var dest struct {
		User string `json:"user"`
		Port int    `json:"port"`
	}
	require.NoError(t, m.GetSecretJSON(ctx, "DSS_TEST_JSON", &dest))
	assert.Equal(t, "fra", dest.User)
	assert.Equal(t, 5432, dest.Port)

	_, err = m.GetSecret(ctx, "DSS_TEST_MISSING")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache(time.Minute)
	c.now = func() time.Time { return now }

	c.set("k", "v")
	v, ok := c.get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("k")
	assert.False(t, ok)
}

func TestAWSSecretsManager(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{"fraatlas/prod/JWT_SECRET": "from-aws"}}
	m := newAWSSecretsManager(api, Config{Prefix: "fraatlas/prod/", CacheDuration: time.Minute})
	ctx := context.Background()

	v, err := m.GetSecret(ctx, KeyJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "from-aws", v)

	_, err = m.GetSecret(ctx, KeyJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)

	_, err = m.GetSecret(ctx, KeyRedisURL)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApply(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{
		"JWT_SECRET":   "prod-secret",
		"DATABASE_URL": "postgres://fra@db/fraatlas",
	}}
	m := newAWSSecretsManager(api, Config{CacheDuration: time.Minute})

	cfg := &config.Config{
		APIEnvironment: "production",
		JWTSecret:      "change-this-in-production",
		DatabaseURL:    "postgres://localhost/fraatlas",
		RedisURL:       "redis://localhost:6379",
	}
	require.NoError(t, Apply(context.Background(), m, cfg))

	assert.Equal(t, "prod-secret", cfg.JWTSecret)
	assert.Equal(t, "postgres://fra@db/fraatlas", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Empty(t, cfg.SentryDSN)
}

func TestApply_ProductionRequiresJWTSecret(t *testing.T) {
	m := newAWSSecretsManager(&fakeSecretsAPI{values: map[string]string{}}, Config{})
	cfg := &config.Config{APIEnvironment: "production", JWTSecret: "from-env"}

	err := Apply(context.Background(), m, cfg)
	assert.ErrorContains(t, err, "required secret JWT_SECRET not found")
}

func TestConfigFor(t *testing.T) {
	sc := ConfigFor(&config.Config{SecretsBackend: BackendAWS, AWSRegion: "ap-south-2", SecretsPrefix: "fra/"})
	assert.Equal(t, BackendAWS, sc.Backend)
	assert.Equal(t, "ap-south-2", sc.AWSRegion)
	assert.Equal(t, "fra/", sc.Prefix)
	assert.Equal(t, 5*time.Minute, sc.CacheDuration)
}
