package observer

import (
	"context"
	"time"

	cleave "github.com/nevindra/cleave"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedStore wraps a cleave.VectorStore with OTEL instrumentation.
// The backend name tags every span and metric, so multiple stores can
// share one Instruments.
type ObservedStore struct {
	inner   cleave.VectorStore
	inst    *Instruments
	backend string
}

var _ cleave.VectorStore = (*ObservedStore)(nil)

// WrapStore returns an instrumented vector store. backend names the
// underlying engine, e.g. "memory", "sqlite", "postgres".
func WrapStore(inner cleave.VectorStore, backend string, inst *Instruments) *ObservedStore {
	return &ObservedStore{inner: inner, inst: inst, backend: backend}
}

func (o *ObservedStore) Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]any) error {
	ctx, span := o.inst.Tracer.Start(ctx, "store.add", trace.WithAttributes(
		AttrStoreBackend.String(o.backend),
		AttrStoreRows.Int(len(ids)),
	))
	defer span.End()

	err := o.inner.Add(ctx, ids, texts, metadatas)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.inst.StoreWrites.Add(ctx, 1, metric.WithAttributes(
		AttrStoreBackend.String(o.backend),
		attribute.String("status", status),
	))
	return err
}

func (o *ObservedStore) Query(ctx context.Context, queryText string, topK int, filter map[string]any) ([]cleave.QueryResult, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "store.query", trace.WithAttributes(
		AttrStoreBackend.String(o.backend),
		AttrStoreTopK.Int(topK),
	))
	defer span.End()
	start := time.Now()

	results, err := o.inner.Query(ctx, queryText, topK, filter)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(AttrStoreHits.Int(len(results)))
	}

	o.inst.StoreQueries.Add(ctx, 1, metric.WithAttributes(
		AttrStoreBackend.String(o.backend),
		attribute.String("status", status),
	))
	o.inst.StoreQueryDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrStoreBackend.String(o.backend),
	))

	// Structured log
	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("store query completed"))
	rec.AddAttributes(
		otellog.String("store.backend", o.backend),
		otellog.Int("store.top_k", topK),
		otellog.Int("store.hits", len(results)),
		otellog.Float64("store.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)

	return results, err
}

func (o *ObservedStore) GetByID(ctx context.Context, ids []string) ([]cleave.Record, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "store.get_by_id", trace.WithAttributes(
		AttrStoreBackend.String(o.backend),
		AttrStoreRows.Int(len(ids)),
	))
	defer span.End()

	records, err := o.inner.GetByID(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return records, err
}

func (o *ObservedStore) Count(ctx context.Context) (int, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "store.count", trace.WithAttributes(
		AttrStoreBackend.String(o.backend),
	))
	defer span.End()

	n, err := o.inner.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return n, err
}

// RecordIngest reports chunking outcomes for one document. Callers invoke it
// once per processed document after ingestion completes.
func RecordIngest(ctx context.Context, inst *Instruments, documentID, method string, chunkCount int) {
	attrs := metric.WithAttributes(
		AttrChunkingMethod.String(method),
	)
	inst.DocumentsChunked.Add(ctx, 1, attrs)
	inst.ChunksProduced.Add(ctx, int64(chunkCount), attrs)
	if method == cleave.MethodLegacyFallback {
		inst.FallbackCount.Add(ctx, 1)
	}

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("document chunked"))
	rec.AddAttributes(
		otellog.String("document.id", documentID),
		otellog.String("chunking.method", method),
		otellog.Int("chunking.chunk_count", chunkCount),
	)
	inst.Logger.Emit(ctx, rec)
}
