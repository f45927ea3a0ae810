package secretstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/rotatefn/internal/errors"
	"github.com/systmms/rotatefn/internal/logging"
)

// fakeClient is a mock implementation of SecretsManagerAPI
type fakeClient struct {
	// GetSecretValueFunc allows custom behavior for GetSecretValue
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
	// PutSecretValueFunc allows custom behavior for PutSecretValue
	PutSecretValueFunc func(ctx context.Context, params *secretsmanager.PutSecretValueInput) (*secretsmanager.PutSecretValueOutput, error)
	// GetRandomPasswordFunc allows custom behavior for GetRandomPassword
	GetRandomPasswordFunc func(ctx context.Context, params *secretsmanager.GetRandomPasswordInput) (*secretsmanager.GetRandomPasswordOutput, error)
	// UpdateSecretVersionStageFunc allows custom behavior for UpdateSecretVersionStage
	UpdateSecretVersionStageFunc func(ctx context.Context, params *secretsmanager.UpdateSecretVersionStageInput) (*secretsmanager.UpdateSecretVersionStageOutput, error)
}

func (f *fakeClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.GetSecretValueFunc != nil {
		return f.GetSecretValueFunc(ctx, params)
	}
	return nil, fmt.Errorf("GetSecretValue not configured")
}

func (f *fakeClient) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	if f.PutSecretValueFunc != nil {
		return f.PutSecretValueFunc(ctx, params)
	}
	return nil, fmt.Errorf("PutSecretValue not configured")
}

func (f *fakeClient) GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error) {
	if f.GetRandomPasswordFunc != nil {
		return f.GetRandomPasswordFunc(ctx, params)
	}
	return nil, fmt.Errorf("GetRandomPassword not configured")
}

func (f *fakeClient) UpdateSecretVersionStage(ctx context.Context, params *secretsmanager.UpdateSecretVersionStageInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretVersionStageOutput, error) {
	if f.UpdateSecretVersionStageFunc != nil {
		return f.UpdateSecretVersionStageFunc(ctx, params)
	}
	return nil, fmt.Errorf("UpdateSecretVersionStage not configured")
}

func newTestGateway(t *testing.T, client SecretsManagerAPI) *AWSGateway {
	t.Helper()
	g, err := NewAWSGateway(context.Background(), "us-east-1",
		WithClient(client),
		WithLogger(logging.NewWithWriter(io.Discard, false, true)),
	)
	require.NoError(t, err)
	return g
}

func TestFetchStringPayload(t *testing.T) {
	client := &fakeClient{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
			assert.Equal(t, "prod/db", *params.SecretId)
			assert.Equal(t, StageCurrent, *params.VersionStage)
			return &secretsmanager.GetSecretValueOutput{
				ARN:          stringPtr("arn:aws:secretsmanager:us-east-1:123:secret:prod/db"),
				VersionId:    stringPtr("v-current"),
				SecretString: stringPtr(`{"user":"app"}`),
			}, nil
		},
	}

	g := newTestGateway(t, client)
	rec, err := g.Fetch(context.Background(), "prod/db", StageCurrent)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:secretsmanager:us-east-1:123:secret:prod/db", rec.ARN)
	assert.Equal(t, "v-current", rec.VersionID)
	assert.Equal(t, `{"user":"app"}`, string(rec.Payload))
}

func TestFetchBinaryPayload(t *testing.T) {
	client := &fakeClient{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
			return &secretsmanager.GetSecretValueOutput{
				ARN:          stringPtr("arn:x"),
				VersionId:    stringPtr("v1"),
				SecretBinary: []byte(`{"user":"bin"}`),
			}, nil
		},
	}

	g := newTestGateway(t, client)
	rec, err := g.Fetch(context.Background(), "prod/db", StagePending)
	require.NoError(t, err)
	assert.Equal(t, `{"user":"bin"}`, string(rec.Payload))
}

func TestFetchMissingMetadata(t *testing.T) {
	tests := []struct {
		name   string
		output *secretsmanager.GetSecretValueOutput
		want   string
	}{
		{
			name:   "no arn",
			output: &secretsmanager.GetSecretValueOutput{VersionId: stringPtr("v1"), SecretString: stringPtr("x")},
			want:   "no ARN",
		},
		{
			name:   "no version id",
			output: &secretsmanager.GetSecretValueOutput{ARN: stringPtr("arn:x"), SecretString: stringPtr("x")},
			want:   "no version id",
		},
		{
			name:   "no value",
			output: &secretsmanager.GetSecretValueOutput{ARN: stringPtr("arn:x"), VersionId: stringPtr("v1")},
			want:   "no value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
					return tt.output, nil
				},
			}
			g := newTestGateway(t, client)
			_, err := g.Fetch(context.Background(), "prod/db", StageCurrent)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "prod/db")
		})
	}
}

func TestFetchWrapsStoreError(t *testing.T) {
	client := &fakeClient{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
			return nil, fmt.Errorf("access denied")
		},
	}

	g := newTestGateway(t, client)
	_, err := g.Fetch(context.Background(), "prod/db", StageCurrent)
	require.Error(t, err)

	var se *errors.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fetch SecretValue", se.Op)
	assert.Equal(t, "prod/db", se.SecretID)
}

func TestFetchRetriesOnThrottle(t *testing.T) {
	calls := 0
	client := &fakeClient{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
			calls++
			if calls == 1 {
				return nil, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"}
			}
			return &secretsmanager.GetSecretValueOutput{
				ARN:          stringPtr("arn:x"),
				VersionId:    stringPtr("v1"),
				SecretString: stringPtr("payload"),
			}, nil
		},
	}

	g := newTestGateway(t, client)
	rec, err := g.Fetch(context.Background(), "prod/db", StageCurrent)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "payload", string(rec.Payload))
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
			cancel()
			return nil, &smithy.GenericAPIError{Code: "TooManyRequestsException"}
		},
	}

	g := newTestGateway(t, client)
	_, err := g.Fetch(ctx, "prod/db", StageCurrent)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsThrottle(t *testing.T) {
	httpErr := func(status int, msg string) error {
		return &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      fmt.Errorf("%s", msg),
			},
		}
	}

	assert.True(t, isThrottle(&smithy.GenericAPIError{Code: "ThrottlingException"}))
	assert.True(t, isThrottle(&smithy.GenericAPIError{Code: "TooManyRequestsException"}))
	assert.True(t, isThrottle(httpErr(429, "slow down")))
	assert.True(t, isThrottle(httpErr(400, "ThrottlingException: rate exceeded")))
	assert.True(t, isThrottle(httpErr(503, "SlowDown: please reduce request rate")))

	assert.False(t, isThrottle(fmt.Errorf("plain failure")))
	assert.False(t, isThrottle(&smithy.GenericAPIError{Code: "ResourceNotFoundException"}))
	assert.False(t, isThrottle(httpErr(400, "ValidationException: bad input")))
	assert.False(t, isThrottle(httpErr(500, "internal error")))
}

func TestGeneratePassword(t *testing.T) {
	var captured *secretsmanager.GetRandomPasswordInput
	client := &fakeClient{
		GetRandomPasswordFunc: func(ctx context.Context, params *secretsmanager.GetRandomPasswordInput) (*secretsmanager.GetRandomPasswordOutput, error) {
			captured = params
			return &secretsmanager.GetRandomPasswordOutput{RandomPassword: stringPtr("s3cr3t")}, nil
		},
	}

	g := newTestGateway(t, client)
	pw, err := g.GeneratePassword(context.Background(), true, 32)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", pw)

	require.NotNil(t, captured)
	assert.Equal(t, `"`, *captured.ExcludeCharacters)
	assert.True(t, *captured.ExcludePunctuation)
	require.NotNil(t, captured.PasswordLength)
	assert.Equal(t, int64(32), *captured.PasswordLength)
}

func TestGeneratePasswordDefaultLength(t *testing.T) {
	client := &fakeClient{
		GetRandomPasswordFunc: func(ctx context.Context, params *secretsmanager.GetRandomPasswordInput) (*secretsmanager.GetRandomPasswordOutput, error) {
			assert.Nil(t, params.PasswordLength)
			assert.False(t, *params.ExcludePunctuation)
			return &secretsmanager.GetRandomPasswordOutput{RandomPassword: stringPtr("pw")}, nil
		},
	}

	g := newTestGateway(t, client)
	_, err := g.GeneratePassword(context.Background(), false, 0)
	require.NoError(t, err)
}

func TestGeneratePasswordEmptyResponse(t *testing.T) {
	client := &fakeClient{
		GetRandomPasswordFunc: func(ctx context.Context, params *secretsmanager.GetRandomPasswordInput) (*secretsmanager.GetRandomPasswordOutput, error) {
			return &secretsmanager.GetRandomPasswordOutput{}, nil
		},
	}

	g := newTestGateway(t, client)
	_, err := g.GeneratePassword(context.Background(), false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password")
}

func TestWritePending(t *testing.T) {
	var captured *secretsmanager.PutSecretValueInput
	client := &fakeClient{
		PutSecretValueFunc: func(ctx context.Context, params *secretsmanager.PutSecretValueInput) (*secretsmanager.PutSecretValueOutput, error) {
			captured = params
			return &secretsmanager.PutSecretValueOutput{}, nil
		},
	}

	g := newTestGateway(t, client)
	err := g.WritePending(context.Background(), "prod/db", "token-123", `{"password":"new"}`)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "prod/db", *captured.SecretId)
	assert.Equal(t, "token-123", *captured.ClientRequestToken)
	assert.Equal(t, `{"password":"new"}`, *captured.SecretString)
	assert.Equal(t, []string{StagePending}, captured.VersionStages)
}

func TestPromote(t *testing.T) {
	var captured *secretsmanager.UpdateSecretVersionStageInput
	client := &fakeClient{
		UpdateSecretVersionStageFunc: func(ctx context.Context, params *secretsmanager.UpdateSecretVersionStageInput) (*secretsmanager.UpdateSecretVersionStageOutput, error) {
			captured = params
			return &secretsmanager.UpdateSecretVersionStageOutput{}, nil
		},
	}

	g := newTestGateway(t, client)
	err := g.Promote(context.Background(), "arn:x", "v-old", "v-new")
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "arn:x", *captured.SecretId)
	assert.Equal(t, StageCurrent, *captured.VersionStage)
	assert.Equal(t, "v-new", *captured.MoveToVersionId)
	assert.Equal(t, "v-old", *captured.RemoveFromVersionId)
}
