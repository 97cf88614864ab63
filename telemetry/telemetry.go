package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-service/config"
	"profile-service/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Enabled reports whether any OTLP endpoint is configured.
func Enabled(cfg config.TelemetryConfig) bool {
	return cfg.OTLPEndpoint != "" || cfg.OTLPTracesEndpoint != "" || cfg.OTLPMetricsEndpoint != ""
}

func signalEndpoint(shared, specific string) string {
	if specific != "" {
		return specific
	}
	return shared
}

// Init installs the global tracer and meter providers. Without an endpoint
// only the propagators are set and spans are discarded.
func Init(ctx context.Context, cfg config.TelemetryConfig, appEnv string, log logger.Logger) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !Enabled(cfg) {
		log.Info("OpenTelemetry disabled: OTEL_EXPORTER_OTLP_ENDPOINT is empty")
		return noopShutdown, nil
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("deployment.environment", appEnv),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	traceExporter, metricExporter, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)
	metricProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(
			metricExporter,
			metric.WithInterval(cfg.MetricExportInterval),
		)),
	)

	otel.SetTracerProvider(traceProvider)
	otel.SetMeterProvider(metricProvider)
	log.Info("OpenTelemetry enabled",
		zap.String("protocol", cfg.OTLPProtocol),
		zap.String("service", cfg.ServiceName),
	)

	return func(shutdownCtx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		defer cancel()

		return errors.Join(
			traceProvider.Shutdown(shutdownCtx),
			metricProvider.Shutdown(shutdownCtx),
		)
	}, nil
}

func newExporters(ctx context.Context, cfg config.TelemetryConfig) (trace.SpanExporter, metric.Exporter, error) {
	traceEndpoint := signalEndpoint(cfg.OTLPEndpoint, cfg.OTLPTracesEndpoint)
	metricEndpoint := signalEndpoint(cfg.OTLPEndpoint, cfg.OTLPMetricsEndpoint)

	switch cfg.OTLPProtocol {
	case "http/protobuf", "http":
		traceOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(traceEndpoint),
			otlptracehttp.WithHeaders(cfg.OTLPHeaders),
			otlptracehttp.WithTimeout(cfg.ExportTimeout),
		}
		metricOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(metricEndpoint),
			otlpmetrichttp.WithHeaders(cfg.OTLPHeaders),
			otlpmetrichttp.WithTimeout(cfg.ExportTimeout),
		}
		if cfg.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}

		traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create trace exporter: %w", err)
		}
		metricExporter, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create metric exporter: %w", err)
		}
		return traceExporter, metricExporter, nil
	default:
		traceOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(traceEndpoint),
			otlptracegrpc.WithHeaders(cfg.OTLPHeaders),
			otlptracegrpc.WithTimeout(cfg.ExportTimeout),
		}
		metricOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(metricEndpoint),
			otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders),
			otlpmetricgrpc.WithTimeout(cfg.ExportTimeout),
		}
		if cfg.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		}

		traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create trace exporter: %w", err)
		}
		metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create metric exporter: %w", err)
		}
		return traceExporter, metricExporter, nil
	}
}
