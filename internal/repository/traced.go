package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"todo-board/internal/model"
)

const tracerName = "todo-board/repository"

type tracedBackend struct {
	next   Backend
	tracer trace.Tracer
	store  string
}

// Traced wraps a backend so every operation runs in its own span. The tracer
// is taken from the global provider at construction time.
func Traced(next Backend, store string) Backend {
	return &tracedBackend{
		next:   next,
		tracer: otel.Tracer(tracerName),
		store:  store,
	}
}

func (t *tracedBackend) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("todo.store", t.store))
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("todo.error_kind", classify(err).String()))
	}
	span.End()
}

func (t *tracedBackend) List(ctx context.Context) ([]model.Task, error) {
	ctx, span := t.start(ctx, "todos.list")
	tasks, err := t.next.List(ctx)
	span.SetAttributes(attribute.Int("todo.count", len(tasks)))
	finish(span, err)
	return tasks, err
}

func (t *tracedBackend) Insert(ctx context.Context, input model.TaskInput) (string, error) {
	ctx, span := t.start(ctx, "todos.insert")
	id, err := t.next.Insert(ctx, input)
	if id != "" {
		span.SetAttributes(attribute.String("todo.id", id))
	}
	finish(span, err)
	return id, err
}

func (t *tracedBackend) Merge(ctx context.Context, id string, patch model.TaskPatch) error {
	ctx, span := t.start(ctx, "todos.merge", attribute.String("todo.id", id))
	err := t.next.Merge(ctx, id, patch)
	finish(span, err)
	return err
}

func (t *tracedBackend) Remove(ctx context.Context, id string) error {
	ctx, span := t.start(ctx, "todos.remove", attribute.String("todo.id", id))
	err := t.next.Remove(ctx, id)
	finish(span, err)
	return err
}

func (t *tracedBackend) Close(ctx context.Context) error {
	return t.next.Close(ctx)
}
