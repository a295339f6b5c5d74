package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Two instances must not collide on registration
	first := NewMetrics()
	second := NewMetrics()

	first.RecordDatagramReceived(10)

	if got := testutil.ToFloat64(first.DatagramsReceived); got != 1 {
		t.Errorf("Expected 1 datagram on first registry, got %v", got)
	}
	if got := testutil.ToFloat64(second.DatagramsReceived); got != 0 {
		t.Errorf("Expected 0 datagrams on second registry, got %v", got)
	}
}

func TestRecordDatagramFlow(t *testing.T) {
	m := NewMetrics()

	m.RecordDatagramReceived(13)
	m.RecordReplySent(13, 0.0001)
	m.RecordDatagramReceived(5)
	m.RecordSendError()
	m.RecordReceiveError()

	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"datagrams received", testutil.ToFloat64(m.DatagramsReceived), 2},
		{"replies sent", testutil.ToFloat64(m.RepliesSent), 1},
		{"bytes received", testutil.ToFloat64(m.BytesReceived), 18},
		{"bytes sent", testutil.ToFloat64(m.BytesSent), 13},
		{"send errors", testutil.ToFloat64(m.SendErrors), 1},
		{"receive errors", testutil.ToFloat64(m.ReceiveErrors), 1},
	}

	for _, tt := range tests {
		if tt.value != tt.expected {
			t.Errorf("%s = %v, expected %v", tt.name, tt.value, tt.expected)
		}
	}
}

func TestRecordHTTP(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/health", "200", 0.01)
	m.RecordHTTPRequest("GET", "/health", "200", 0.02)
	m.RecordHTTPError("POST", "/health", "client_error")

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")); got != 2 {
		t.Errorf("Expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPErrors.WithLabelValues("POST", "/health", "client_error")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordDatagramReceived(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "rot13_datagrams_received_total 1") {
		t.Errorf("Expected exposition to contain datagram counter, got:\n%s", body)
	}
}
