package secrets

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"secrets-manager-utility/pkg/logger"
	"secrets-manager-utility/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	metricapi "go.opentelemetry.io/otel/metric"
)

const scope = "secrets"

// Accessor fetches secrets from a single Backend. It is active from
// construction until Release; fetches after Release fail with ErrReleased.
type Accessor struct {
	backend  Backend
	name     string
	released atomic.Bool

	fetches  metricapi.Int64Counter
	failures metricapi.Int64Counter
	latency  metricapi.Int64Histogram
}

// New returns an Accessor over the given backend.
func New(backend Backend) *Accessor {
	meter := telemetry.GetMeter(scope)

	return &Accessor{
		backend:  backend,
		name:     backendName(backend),
		fetches:  telemetry.Int64Counter(meter, "secrets.fetch.total", "Secret lookups issued"),
		failures: telemetry.Int64Counter(meter, "secrets.fetch.errors", "Secret lookups that failed"),
		latency:  telemetry.LatencyHistogram(meter, "secrets.fetch.duration", "Secret lookup latency"),
	}
}

// NewFromEnv builds a backend from the ambient environment (see LoadConfig)
// and returns an Accessor over it.
func NewFromEnv(ctx context.Context) (*Accessor, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}

// GetSecret returns the string value stored under name.
// Store errors (invalid parameter, invalid request, not found) are returned
// unwrapped; use IsInvalidParameter, IsInvalidRequest and IsNotFound.
func (a *Accessor) GetSecret(ctx context.Context, name string) (string, error) {
	ctx, span := telemetry.GetTracer(scope).Start(ctx, "secrets.get_secret",
		telemetry.WithAttributes(attribute.String("secret.backend", a.name), attribute.String("secret.name", name)))
	defer span.End()

	secret, err := a.getSecret(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(telemetry.CodeError, "fetch failed")
	}
	return secret, err
}

func (a *Accessor) getSecret(ctx context.Context, name string) (string, error) {
	if a.released.Load() {
		return "", ErrReleased
	}
	if name == "" {
		return "", fmt.Errorf("%w: secret name must not be empty", ErrInvalidParameter)
	}

	attr := attribute.String("backend", a.name)
	start := time.Now()
	val, err := a.backend.GetSecretValue(ctx, name)
	telemetry.Count(ctx, a.fetches, attr)
	telemetry.RecordSince(ctx, a.latency, start, attr)

	switch {
	case err != nil:
	case val == nil:
		err = fmt.Errorf("%w for the secret name %s", ErrInvalidState, name)
	case val.String != nil:
		return *val.String, nil
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	telemetry.Count(ctx, a.failures, attr)
	return "", err
}

// GetKey fetches the secret stored under name, parses it as a JSON object
// and returns the field key as text. A missing field is an error, never an
// empty string.
func (a *Accessor) GetKey(ctx context.Context, name, key string) (string, error) {
	ctx, span := telemetry.GetTracer(scope).Start(ctx, "secrets.get_key",
		telemetry.WithAttributes(
			attribute.String("secret.backend", a.name),
			attribute.String("secret.name", name),
			attribute.String("secret.key", key),
		))
	defer span.End()

	if a.released.Load() {
		return "", ErrReleased
	}
	if key == "" {
		return "", fmt.Errorf("%w: key name must not be empty", ErrInvalidParameter)
	}

	secret, err := a.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}

	val, err := extractKey(secret, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(telemetry.CodeError, "extract failed")
		return "", fmt.Errorf("secret %s: %w", name, err)
	}
	return val, nil
}

// Release shuts down the backend client. It returns "" on success and
// ReleaseFailedMessage if the shutdown failed; it never panics.
// Call it once, when the Accessor is no longer needed.
func (a *Accessor) Release() (msg string) {
	if a.released.Swap(true) {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("secret_client_release_failed", "backend", a.name, "error", fmt.Sprint(r))
			msg = ReleaseFailedMessage
		}
	}()

	if err := a.backend.Close(); err != nil {
		logger.Warn("secret_client_release_failed", "backend", a.name, "error", err)
		return ReleaseFailedMessage
	}
	return ""
}
