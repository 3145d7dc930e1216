package observability

import (
	"context"
	"testing"
	"time"

	"agency-dashboard/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New("dashboard-test", reg, logger.NewTestLogger(t))
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "prospects.GetByClient")
	o.RecordOperation(ctx, "prospects", "get_by_client", 12*time.Millisecond, "success")
	span.End()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "store_operations_total")
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability
	ctx, span := o.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	span.End()
	o.RecordOperation(ctx, "clients", "get_all", time.Millisecond, "success")
	o.Shutdown()
}
