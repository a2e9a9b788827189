package secrets

import "context"

// Value is the raw result of a secret lookup. A managed store keeps a secret
// either as a string or as binary; exactly one of the fields is set.
type Value struct {
	String *string
	Binary []byte
}

// StringValue returns a Value holding the string-valued form.
func StringValue(s string) *Value {
	return &Value{String: &s}
}

// BinaryValue returns a Value holding the binary-valued form.
func BinaryValue(b []byte) *Value {
	return &Value{Binary: b}
}

// Backend is the narrow capability the Accessor depends on: one managed
// secret store client.
type Backend interface {
	// GetSecretValue looks up a secret by name. Provider errors are returned
	// exactly as the provider client produced them.
	GetSecretValue(ctx context.Context, name string) (*Value, error)

	// Close releases the underlying client resources.
	Close() error
}

// KeySource extracts single fields from JSON secrets. *Accessor implements it.
type KeySource interface {
	GetKey(ctx context.Context, name, key string) (string, error)
}

// SecretSource fetches whole secrets. *Accessor implements it.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// named is implemented by backends that report a short provider name for
// logs and telemetry attributes.
type named interface {
	Name() string
}

func backendName(b Backend) string {
	if n, ok := b.(named); ok {
		return n.Name()
	}
	return "custom"
}
