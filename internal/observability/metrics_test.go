package observability

import (
	"testing"
	"time"

	"github.com/danmuck/am43ctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("am43-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordCodec("decode", "response", "REQUEST_BATTERY_STATUS", "ok", 9)
	RecordCodec("decode", "unknown", "unknown", "integrity", 0)
	RecordConfirmation("UPDATE_LIMIT_OR_RESET", false)

	if got := testutil.ToFloat64(codecOperations.WithLabelValues("decode", "response", "REQUEST_BATTERY_STATUS", "ok")); got < 1 {
		t.Fatalf("codec counter not incremented: %v", got)
	}
	if got := testutil.ToFloat64(confirmations.WithLabelValues("UPDATE_LIMIT_OR_RESET", "false")); got < 1 {
		t.Fatalf("confirmation counter not incremented: %v", got)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("am43-a", "GET", "/health", "200")); got < 1 {
		t.Fatalf("http counter not incremented: %v", got)
	}
}
