package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smazurov/jackbridge/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	handler := HTTPHandler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	metrics.SetJackDeviceConnections("http-test-device", 2)
	defer metrics.DeleteJackDeviceMetrics("http-test-device")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, `jackbridge_jack_device_connections{device="http-test-device"} 2`) {
		t.Errorf("expected device connections series in response, got:\n%s", body)
	}
}
