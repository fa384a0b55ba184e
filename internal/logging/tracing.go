package logging

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SetupTracing installs a global tracer provider whose finished spans are
// written to log at debug level, or warn for failed spans. The returned
// func flushes and stops the provider.
func SetupTracing(log logrus.FieldLogger) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(NewSpanLogger(log)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// SpanLogger is a span exporter backed by logrus.
type SpanLogger struct {
	log logrus.FieldLogger
}

func NewSpanLogger(log logrus.FieldLogger) *SpanLogger {
	return &SpanLogger{log: log}
}

func (e *SpanLogger) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := logrus.Fields{
			"span":     span.Name(),
			"trace_id": span.SpanContext().TraceID().String(),
			"duration": span.EndTime().Sub(span.StartTime()).String(),
		}
		for _, kv := range span.Attributes() {
			fields[string(kv.Key)] = kv.Value.AsInterface()
		}
		entry := e.log.WithFields(fields)
		if st := span.Status(); st.Code == codes.Error {
			entry.WithField("error", st.Description).Warn("span finished")
			continue
		}
		entry.Debug("span finished")
	}
	return ctx.Err()
}

func (e *SpanLogger) Shutdown(context.Context) error {
	return nil
}
