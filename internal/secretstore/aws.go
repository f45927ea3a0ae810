package secretstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/systmms/rotatefn/internal/errors"
	"github.com/systmms/rotatefn/internal/logging"
	"github.com/systmms/rotatefn/internal/metrics"
)

// SecretsManagerAPI defines the interface for AWS Secrets Manager operations
// This allows for mocking in tests
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error)
	UpdateSecretVersionStage(ctx context.Context, params *secretsmanager.UpdateSecretVersionStageInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretVersionStageOutput, error)
}

// AWSGateway implements Gateway on top of AWS Secrets Manager.
type AWSGateway struct {
	client   SecretsManagerAPI
	region   string
	endpoint string // Optional custom endpoint for LocalStack or testing
	logger   *logging.Logger
	metrics  *metrics.InvocationMetrics

	accessKeyID     string
	secretAccessKey string
}

// GatewayOption is a functional option for configuring the gateway
type GatewayOption func(*AWSGateway)

// WithClient sets a custom Secrets Manager client (for testing)
func WithClient(client SecretsManagerAPI) GatewayOption {
	return func(g *AWSGateway) {
		g.client = client
	}
}

// WithEndpoint sets a custom service endpoint (for LocalStack/testing)
func WithEndpoint(endpoint string) GatewayOption {
	return func(g *AWSGateway) {
		g.endpoint = endpoint
	}
}

// WithStaticCredentials sets static credentials (for LocalStack/testing)
func WithStaticCredentials(accessKeyID, secretAccessKey string) GatewayOption {
	return func(g *AWSGateway) {
		g.accessKeyID = accessKeyID
		g.secretAccessKey = secretAccessKey
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(logger *logging.Logger) GatewayOption {
	return func(g *AWSGateway) {
		g.logger = logger
	}
}

// NewAWSGateway creates a gateway for the given region. A nil client
// in the options means a real client is built from the default AWS
// config chain.
func NewAWSGateway(ctx context.Context, region string, opts ...GatewayOption) (*AWSGateway, error) {
	g := &AWSGateway{
		region:  region,
		logger:  logging.New(false, false),
		metrics: metrics.NewInvocationMetrics(),
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(g)
	}

	// If no client was provided via options, create real client
	if g.client == nil {
		var configOpts []func(*config.LoadOptions) error
		configOpts = append(configOpts, config.WithRegion(region))

		// Use static credentials if provided (for LocalStack/testing)
		if g.accessKeyID != "" && g.secretAccessKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(g.accessKeyID, g.secretAccessKey, ""),
			))
		}

		cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if g.endpoint != "" {
			endpoint := g.endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		g.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return g, nil
}

// Region returns the region this gateway talks to.
func (g *AWSGateway) Region() string {
	return g.region
}

// Fetch retrieves the secret version carrying the given stage label.
func (g *AWSGateway) Fetch(ctx context.Context, secretID, stage string) (*Record, error) {
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     stringPtr(secretID),
		VersionStage: stringPtr(stage),
	}

	result, err := withRetry(ctx, g, "GetSecretValue", func() (*secretsmanager.GetSecretValueOutput, error) {
		return g.client.GetSecretValue(ctx, input)
	})
	if err != nil {
		return nil, &errors.StoreError{Op: "fetch SecretValue", SecretID: secretID, Err: err}
	}

	if result.ARN == nil {
		return nil, &errors.StoreError{Op: "fetch SecretValue", SecretID: secretID, Err: fmt.Errorf("response has no ARN")}
	}
	if result.VersionId == nil {
		return nil, &errors.StoreError{Op: "fetch SecretValue", SecretID: secretID, Err: fmt.Errorf("response has no version id")}
	}

	var payload []byte
	switch {
	case result.SecretString != nil:
		payload = []byte(*result.SecretString)
	case result.SecretBinary != nil:
		payload = result.SecretBinary
	default:
		return nil, &errors.StoreError{Op: "fetch SecretValue", SecretID: secretID, Err: fmt.Errorf("secret has no value")}
	}

	return &Record{
		ARN:       *result.ARN,
		VersionID: *result.VersionId,
		Payload:   payload,
	}, nil
}

// GeneratePassword asks Secrets Manager for random secret material.
// The double quote is always excluded so the result survives JSON
// payload transport without escaping surprises.
func (g *AWSGateway) GeneratePassword(ctx context.Context, excludePunctuation bool, length int64) (string, error) {
	input := &secretsmanager.GetRandomPasswordInput{
		ExcludeCharacters:  stringPtr(`"`),
		ExcludePunctuation: boolPtr(excludePunctuation),
	}
	if length > 0 {
		input.PasswordLength = int64Ptr(length)
	}

	result, err := withRetry(ctx, g, "GetRandomPassword", func() (*secretsmanager.GetRandomPasswordOutput, error) {
		return g.client.GetRandomPassword(ctx, input)
	})
	if err != nil {
		return "", &errors.StoreError{Op: "generate RandomPassword", Err: err}
	}

	if result.RandomPassword == nil {
		return "", &errors.StoreError{Op: "generate RandomPassword", Err: fmt.Errorf("response has no password")}
	}
	return *result.RandomPassword, nil
}

// WritePending writes a new version of the secret under the pending
// stage. The request token makes repeated writes for the same rotation
// attempt idempotent on the store side.
func (g *AWSGateway) WritePending(ctx context.Context, secretID, requestToken, payload string) error {
	input := &secretsmanager.PutSecretValueInput{
		SecretId:           stringPtr(secretID),
		ClientRequestToken: stringPtr(requestToken),
		SecretString:       stringPtr(payload),
		VersionStages:      []string{StagePending},
	}

	_, err := withRetry(ctx, g, "PutSecretValue", func() (*secretsmanager.PutSecretValueOutput, error) {
		return g.client.PutSecretValue(ctx, input)
	})
	if err != nil {
		return &errors.StoreError{Op: "put SecretValue", SecretID: secretID, Err: err}
	}
	return nil
}

// Promote moves the current stage label from the old version to the
// pending version in one store call.
func (g *AWSGateway) Promote(ctx context.Context, arn, currentVersionID, pendingVersionID string) error {
	input := &secretsmanager.UpdateSecretVersionStageInput{
		SecretId:            stringPtr(arn),
		VersionStage:        stringPtr(StageCurrent),
		MoveToVersionId:     stringPtr(pendingVersionID),
		RemoveFromVersionId: stringPtr(currentVersionID),
	}

	_, err := withRetry(ctx, g, "UpdateSecretVersionStage", func() (*secretsmanager.UpdateSecretVersionStageOutput, error) {
		return g.client.UpdateSecretVersionStage(ctx, input)
	})
	if err != nil {
		return &errors.StoreError{Op: "update SecretVersionStage", SecretID: arn, Err: err}
	}
	return nil
}

// Helper functions

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func int64Ptr(i int64) *int64 {
	return &i
}
