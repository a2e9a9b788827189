package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ScopeName is the instrumentation scope used when callers pass no name.
const ScopeName = "secrets-manager-utility"

// Attribute is a key/value pair attached to spans and metric points.
type Attribute = attribute.KeyValue

const shutdownTimeout = 5 * time.Second

// Init wires traces, metrics and logs to an OTLP gRPC collector at
// OTEL_EXPORTER_OTLP_ENDPOINT. Without an endpoint telemetry stays disabled
// and the global no-op providers remain in place.
// The returned shutdown function flushes all exporters.
func Init(ctx context.Context, serviceName string) (func(), error) {
	noop := func() {}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		slog.Warn("otel_endpoint_missing", "detail", "OTEL_EXPORTER_OTLP_ENDPOINT not set, telemetry disabled")
		return noop, nil
	}

	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	if serviceName == "" {
		serviceName = "unknown-service"
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return noop, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	res := resource.NewSchemaless(
		semconv.ServiceName(serviceName),
	)

	var shutdowns []func(context.Context) error
	for _, setup := range []func(context.Context, *grpc.ClientConn, *resource.Resource) (func(context.Context) error, error){
		initTraces,
		initMetrics,
		initLogs,
	} {
		shutdown, err := setup(ctx, conn, res)
		if err != nil {
			runShutdown(shutdowns)
			conn.Close()
			return noop, err
		}
		shutdowns = append(shutdowns, shutdown)
	}

	slog.Info("otel_enabled", "endpoint", endpoint, "service", serviceName)

	return func() {
		if err := runShutdown(shutdowns); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown: %v\n", err)
		}
		conn.Close()
	}, nil
}

func runShutdown(shutdowns []func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(shutdowns) - 1; i >= 0; i-- {
		if err := shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
