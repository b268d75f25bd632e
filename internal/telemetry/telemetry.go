package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type OtlpConnConfig struct {
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

// Telemetry holds whichever providers were configured; a nil provider means the global no-op one is in use.
type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	var errlist []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

// Setup installs OTLP/HTTP trace and metric providers for the endpoints present in config.
// With no endpoints it leaves otel's no-op providers in place.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	var tel Telemetry
	if config.Otlp.Traces.HttpEndpoint == "" && config.Otlp.Metrics.HttpEndpoint == "" {
		return tel, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return tel, err
	}

	if config.Otlp.Traces.HttpEndpoint != "" {
		exporter, err := otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(config.Otlp.Traces.HttpEndpoint),
			otlptracehttp.WithHeaders(config.Otlp.Traces.Headers),
		)
		if err != nil {
			return tel, err
		}
		tel.TracerProvider = trace.NewTracerProvider(
			trace.WithBatcher(exporter),
			trace.WithResource(r),
		)
		otel.SetTracerProvider(tel.TracerProvider)
		slog.Info("tracer export initialized", "type", "http", "endpoint", config.Otlp.Traces.HttpEndpoint)
	}

	if config.Otlp.Metrics.HttpEndpoint != "" {
		exporter, err := otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(config.Otlp.Metrics.HttpEndpoint),
			otlpmetrichttp.WithHeaders(config.Otlp.Metrics.Headers),
		)
		if err != nil {
			return tel, errors.Join(err, tel.Shutdown(context.Background()))
		}
		tel.MeterProvider = metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(time.Second*5))),
			metric.WithResource(r),
		)
		otel.SetMeterProvider(tel.MeterProvider)
		slog.Info("metric exporter initialized", "type", "http", "endpoint", config.Otlp.Metrics.HttpEndpoint)
	}

	return tel, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}
