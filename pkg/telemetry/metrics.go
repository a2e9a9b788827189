package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	metricapi "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc"
)

// GetMeter returns a meter with the provided name.
func GetMeter(name string) metricapi.Meter {
	if name == "" {
		name = ScopeName
	}
	return otel.Meter(name)
}

// Int64Counter returns the named counter. If the meter rejects it the error
// goes to the global otel error handler and a no-op counter is returned.
func Int64Counter(meter metricapi.Meter, name, description string) metricapi.Int64Counter {
	counter, err := meter.Int64Counter(name, metricapi.WithDescription(description), metricapi.WithUnit("{call}"))
	if err != nil {
		otel.Handle(fmt.Errorf("counter %s: %w", name, err))
		return noop.Int64Counter{}
	}
	return counter
}

// LatencyHistogram returns a histogram of durations in milliseconds, falling
// back to a no-op histogram like Int64Counter.
func LatencyHistogram(meter metricapi.Meter, name, description string) metricapi.Int64Histogram {
	histogram, err := meter.Int64Histogram(name, metricapi.WithDescription(description), metricapi.WithUnit("ms"))
	if err != nil {
		otel.Handle(fmt.Errorf("histogram %s: %w", name, err))
		return noop.Int64Histogram{}
	}
	return histogram
}

// Count adds one to counter.
func Count(ctx context.Context, counter metricapi.Int64Counter, attrs ...Attribute) {
	counter.Add(ctx, 1, metricapi.WithAttributes(attrs...))
}

// RecordSince records the milliseconds elapsed since start.
func RecordSince(ctx context.Context, histogram metricapi.Int64Histogram, start time.Time, attrs ...Attribute) {
	histogram.Record(ctx, time.Since(start).Milliseconds(), metricapi.WithAttributes(attrs...))
}

// exportInterval reads OTEL_METRIC_EXPORT_INTERVAL in milliseconds, default 3s.
func exportInterval() time.Duration {
	if ms, err := strconv.Atoi(os.Getenv("OTEL_METRIC_EXPORT_INTERVAL")); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 3 * time.Second
}

func initMetrics(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource) (func(context.Context) error, error) {
	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(exportInterval())),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
