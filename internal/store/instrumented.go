package store

import (
	"context"
	"time"

	"agency-dashboard/internal/common/metrics"
	"agency-dashboard/internal/common/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Instrumented records Prometheus counters, OTel metrics and a span per call.
type Instrumented[T Record] struct {
	Collection[T]
	obs *observability.Observability
}

func NewInstrumented[T Record](inner Collection[T], obs *observability.Observability) *Instrumented[T] {
	return &Instrumented[T]{Collection: inner, obs: obs}
}

func (i *Instrumented[T]) observe(ctx context.Context, op string, fn func(context.Context) error, attrs ...attribute.KeyValue) {
	start := time.Now()
	attrs = append(attrs, attribute.String("collection", i.Name()))
	ctx, span := i.obs.StartSpan(ctx, i.Name()+"."+op, attrs...)
	defer span.End()

	err := fn(ctx)
	elapsed := time.Since(start)
	outcome := metrics.Outcome(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	metrics.StoreOperations.WithLabelValues(i.Name(), op, outcome).Inc()
	metrics.StoreOperationDuration.WithLabelValues(i.Name(), op).Observe(elapsed.Seconds())
	i.obs.RecordOperation(ctx, i.Name(), op, elapsed, outcome)
}

func (i *Instrumented[T]) GetAll(ctx context.Context) (recs []T, err error) {
	i.observe(ctx, "get_all", func(ctx context.Context) error {
		recs, err = i.Collection.GetAll(ctx)
		return err
	})
	return recs, err
}

func (i *Instrumented[T]) GetByClient(ctx context.Context, clientID int) (recs []T, err error) {
	i.observe(ctx, "get_by_client", func(ctx context.Context) error {
		recs, err = i.Collection.GetByClient(ctx, clientID)
		return err
	}, attribute.Int("client.id", clientID))
	return recs, err
}

func (i *Instrumented[T]) GetByID(ctx context.Context, id int) (rec T, err error) {
	i.observe(ctx, "get_by_id", func(ctx context.Context) error {
		rec, err = i.Collection.GetByID(ctx, id)
		return err
	}, attribute.Int("record.id", id))
	return rec, err
}

func (i *Instrumented[T]) Create(ctx context.Context, in T) (rec T, err error) {
	i.observe(ctx, "create", func(ctx context.Context) error {
		rec, err = i.Collection.Create(ctx, in)
		return err
	}, attribute.Int("client.id", in.TenantID()))
	return rec, err
}

func (i *Instrumented[T]) Update(ctx context.Context, id int, patch Patch) (rec T, err error) {
	i.observe(ctx, "update", func(ctx context.Context) error {
		rec, err = i.Collection.Update(ctx, id, patch)
		return err
	}, attribute.Int("record.id", id))
	return rec, err
}

func (i *Instrumented[T]) Delete(ctx context.Context, id int) (ok bool, err error) {
	i.observe(ctx, "delete", func(ctx context.Context) error {
		ok, err = i.Collection.Delete(ctx, id)
		return err
	}, attribute.Int("record.id", id))
	return ok, err
}
