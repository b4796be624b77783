package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/yungbote/studybridge-backend/internal/platform/envutil"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
)

// Init sets up the global trace provider when OTEL_ENABLED is set. The
// returned shutdown flushes pending spans; it is a no-op when tracing is off.
func Init(ctx context.Context, log *logger.Logger) (func(context.Context) error, bool, error) {
	if !envutil.Bool("OTEL_ENABLED", false) {
		return func(context.Context) error { return nil }, false, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	if endpoint := envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""); endpoint != "" {
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(endpoint),
		)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, false, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("studybridge-backend"),
	))
	if err != nil {
		return nil, false, err
	}

	ratio := envutil.Float("OTEL_TRACE_RATIO", 1.0)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", "ratio", ratio)
	return tp.Shutdown, true, nil
}
