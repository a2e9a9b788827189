package secrets

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// secretsManagerAPI is the subset of the Secrets Manager client used here.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSBackend implements Backend for AWS Secrets Manager.
type AWSBackend struct {
	client     secretsManagerAPI
	httpClient aws.HTTPClient
}

// NewAWSBackend initializes a Secrets Manager client from the ambient AWS
// configuration (AWS_REGION, shared config files, credential chain).
// Outbound requests are traced through otelhttp.
func NewAWSBackend(ctx context.Context) (*AWSBackend, error) {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport.(*http.Transport).Clone()),
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &AWSBackend{
		client:     secretsmanager.NewFromConfig(cfg),
		httpClient: cfg.HTTPClient,
	}, nil
}

func (b *AWSBackend) Name() string { return "aws" }

// GetSecretValue returns the SecretString or SecretBinary of the current
// version of the secret. The value is decrypted by the service.
func (b *AWSBackend) GetSecretValue(ctx context.Context, name string) (*Value, error) {
	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}

	if out.SecretString != nil {
		return StringValue(*out.SecretString), nil
	}
	return BinaryValue(out.SecretBinary), nil
}

// Close drops idle connections held by the SDK HTTP client.
func (b *AWSBackend) Close() error {
	if c, ok := b.httpClient.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}
