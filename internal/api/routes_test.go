package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/char5742/mouse-filter/internal/config"
	"github.com/char5742/mouse-filter/internal/filter"
)

func newTestServer() (*Server, *http.ServeMux) {
	s := NewServer(config.DefaultConfig(), 0)
	router := http.NewServeMux()
	s.setupRoutes(router)
	return s, router
}

func TestGetFilterReturnsDefaults(t *testing.T) {
	_, router := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/filter", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got filter.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := filter.Snapshot{Active: false, SmoothingFactor: 50, ResponseSpeed: 50, FilteringStrength: 50}
	if got != want {
		t.Fatalf("filter params = %+v, want %+v", got, want)
	}
}

func TestUpdateFilterPartial(t *testing.T) {
	_, router := newTestServer()

	body := `{"active": true, "smoothing_factor": 90}`
	req := httptest.NewRequest(http.MethodPut, "/api/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var got filter.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	// 指定しなかったフィールドは変わらない
	want := filter.Snapshot{Active: true, SmoothingFactor: 90, ResponseSpeed: 50, FilteringStrength: 50}
	if got != want {
		t.Fatalf("filter params = %+v, want %+v", got, want)
	}
}

func TestUpdateFilterRejectsOutOfRange(t *testing.T) {
	_, router := newTestServer()

	body := `{"smoothing_factor": 150}`
	req := httptest.NewRequest(http.MethodPut, "/api/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// 拒否後も元の値は保持される
	req = httptest.NewRequest(http.MethodGet, "/api/filter", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got filter.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.SmoothingFactor != 50 {
		t.Fatalf("SmoothingFactor = %d, want 50 after rejected write", got.SmoothingFactor)
	}
}

func TestUpdateConfigRejectsInvalidFilter(t *testing.T) {
	_, router := newTestServer()

	body := `{"filter": {"smoothing_factor": -5}}`
	req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServiceStatusStopped(t *testing.T) {
	_, router := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/service/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "stopped" {
		t.Fatalf("status = %q, want stopped", got["status"])
	}
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServerOwnsService(t *testing.T) {
	s1, router1 := newTestServer()

	// 同じサーバーからは常に同じサービスが返る
	if s1.Service() != s1.Service() {
		t.Fatal("Service() returned different instances for the same server")
	}

	body := `{"smoothing_factor": 90}`
	req := httptest.NewRequest(http.MethodPut, "/api/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router1.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// 別のサーバーのサービスには影響しない
	_, router2 := newTestServer()
	req = httptest.NewRequest(http.MethodGet, "/api/filter", nil)
	rec = httptest.NewRecorder()
	router2.ServeHTTP(rec, req)

	var got filter.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.SmoothingFactor != 50 {
		t.Fatalf("SmoothingFactor = %d, want 50 on a fresh server", got.SmoothingFactor)
	}
}

func TestSetPreferredDeviceCopiesConfig(t *testing.T) {
	s, router := newTestServer()
	before := s.GetConfig()

	body := `{"mouse_device": "usb-test-mouse-event-mouse"}`
	req := httptest.NewRequest(http.MethodPut, "/api/devices/preferred", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// 以前に取得した設定は書き換えられない
	if before.DevicePrefs.PreferredMouseDevice != "" {
		t.Fatalf("earlier config snapshot mutated: %q", before.DevicePrefs.PreferredMouseDevice)
	}
	if got := s.GetConfig().DevicePrefs.PreferredMouseDevice; got != "usb-test-mouse-event-mouse" {
		t.Fatalf("PreferredMouseDevice = %q, want usb-test-mouse-event-mouse", got)
	}
}

func TestUpdateFilterCopiesConfig(t *testing.T) {
	s, router := newTestServer()
	before := s.GetConfig()

	body := `{"smoothing_factor": 90}`
	req := httptest.NewRequest(http.MethodPut, "/api/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if before.Filter.SmoothingFactor != 50 {
		t.Fatalf("earlier config snapshot mutated: %d", before.Filter.SmoothingFactor)
	}
	if got := s.GetConfig().Filter.SmoothingFactor; got != 90 {
		t.Fatalf("Filter.SmoothingFactor = %d, want 90", got)
	}
}

func TestClampDelta(t *testing.T) {
	tests := []struct {
		in   int32
		want int8
	}{
		{0, 0},
		{127, 127},
		{128, 127},
		{1000, 127},
		{-128, -128},
		{-129, -128},
		{-1000, -128},
	}
	for _, tt := range tests {
		if got := clampDelta(tt.in); got != tt.want {
			t.Fatalf("clampDelta(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
