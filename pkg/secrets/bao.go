package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// vaultKVv2 is the subset of *api.KVv2 used by BaoProvider.
type vaultKVv2 interface {
	Get(ctx context.Context, secretPath string) (*api.KVSecret, error)
}

// BaoProvider implements Backend for OpenBao (and Vault) KV v2 mounts.
type BaoProvider struct {
	client *api.Client
	kv     vaultKVv2
}

// NewBaoProvider initializes a new OpenBao client. Empty addr and token fall
// back to the SDK's own VAULT_ADDR / VAULT_TOKEN handling.
func NewBaoProvider(addr, token, mount string) (*BaoProvider, error) {
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read openbao config: %w", config.Error)
	}

	if addr != "" {
		config.Address = addr
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create openbao client: %w", err)
	}

	if token != "" {
		client.SetToken(token)
	}
	if mount == "" {
		mount = "secret"
	}

	return &BaoProvider{client: client, kv: client.KVv2(mount)}, nil
}

func (b *BaoProvider) Name() string { return "bao" }

// GetSecretValue reads the latest version of the KV entry at path.
// An entry holding only a string "value" field is a plain string secret and
// an entry holding only a base64 "binary" field is a binary secret. Any other
// entry is returned as its JSON object.
func (b *BaoProvider) GetSecretValue(ctx context.Context, path string) (*Value, error) {
	secret, err := b.kv.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	if len(secret.Data) == 1 {
		if s, ok := secret.Data["value"].(string); ok {
			return StringValue(s), nil
		}
		if s, ok := secret.Data["binary"].(string); ok {
			if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
				return BinaryValue(raw), nil
			}
		}
	}

	payload, err := json.Marshal(secret.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode kv entry %s: %w", path, err)
	}
	return StringValue(string(payload)), nil
}

// Close clears the client token so the provider can no longer authenticate.
func (b *BaoProvider) Close() error {
	if b.client != nil {
		b.client.ClearToken()
	}
	return nil
}
