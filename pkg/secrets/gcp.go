package secrets

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// secretManagerAPI is the subset of the Secret Manager client used here.
type secretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// GCPBackend implements Backend for Google Cloud Secret Manager.
type GCPBackend struct {
	client  secretManagerAPI
	project string
}

// NewGCPBackend opens a Secret Manager client with application default
// credentials. project is used to expand short secret names.
func NewGCPBackend(ctx context.Context, project string) (*GCPBackend, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &GCPBackend{client: client, project: project}, nil
}

func (b *GCPBackend) Name() string { return "gcp" }

// GetSecretValue accesses a secret version. Short names resolve to the latest
// version in the configured project; full resource names are used as given.
func (b *GCPBackend) GetSecretValue(ctx context.Context, name string) (*Value, error) {
	resp, err := b.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: b.resourceName(name),
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.GetPayload() == nil {
		return nil, nil
	}

	data := resp.GetPayload().GetData()
	if !utf8.Valid(data) {
		return BinaryValue(data), nil
	}
	return StringValue(string(data)), nil
}

func (b *GCPBackend) resourceName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", b.project, name)
}

// Close closes the underlying gRPC connection.
func (b *GCPBackend) Close() error {
	return b.client.Close()
}
