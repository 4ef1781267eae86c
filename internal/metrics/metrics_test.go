package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveRun("order_status", "ok", 120*time.Millisecond)
	r.ToolCall("orders", "get_order_status", "ok")
	r.ToolCall("orders", "get_order_status", "transport")
	r.Generation("ok")
	r.ClassifierFallback()
	r.Degradation("tool_unavailable")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("order_status", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolCallsTotal.WithLabelValues("orders", "get_order_status", "transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.classifierFallbacks))
	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveRun("unknown", "ok", time.Second)
		r.ToolCall("orders", "create_order", "ok")
		r.Generation("error")
		r.ClassifierFallback()
		r.Degradation("retrieval_empty")
	})
}
