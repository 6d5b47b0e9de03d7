// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsAndTraces(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	obs, err := New("counsel-workers-test", sr)
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx, span := obs.StartJob(context.Background(), "score-lead", 42, 7)
	assert.True(t, span.SpanContext().IsValid())
	obs.RecordJob(ctx, "score-lead", "handled", 15*time.Millisecond)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "score-lead", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("job.key", 42))
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("process_instance.key", 7))
}

func TestObservability_NilIsNoOp(t *testing.T) {
	var obs *Observability
	ctx, span := obs.StartJob(context.Background(), "score-lead", 1, 1)
	assert.False(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() {
		obs.RecordJob(ctx, "score-lead", "handled", time.Millisecond)
		span.End()
		obs.Shutdown()
	})
}
