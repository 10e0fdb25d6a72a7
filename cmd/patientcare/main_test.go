package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/patientcare/patientcare/internal/config"
	"github.com/patientcare/patientcare/internal/platform/hipaa"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:          "development",
		AuthMode:     "development",
		StoreBackend: config.BackendMemory,
		DevUserID:    "doc-dev",
		CORSOrigins:  []string{"*"},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	be, err := openBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	t.Cleanup(be.close)
	return buildServer(cfg, be, hipaa.Plaintext{}, zerolog.Nop(), prometheus.NewRegistry())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != version {
		t.Errorf("unexpected body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestHealthStore(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health/store", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"backend":"memory"`) {
		t.Errorf("expected memory backend in %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/health", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("expected http_requests_total in metrics output")
	}
}

func TestAvailabilityRoundTrip(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/availability", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"monday"`) {
		t.Errorf("expected default schedule, got %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/availability/days/sunday/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/availability", "")
	var got struct {
		WeeklySchedule map[string]struct {
			Available bool `json:"available"`
		} `json:"weeklySchedule"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.WeeklySchedule["sunday"].Available {
		t.Error("expected sunday to be available after toggle")
	}
}

func TestPatientRecordAccessIsStored(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/patient-records", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/audit/phi-access?user_id=doc-dev", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Data []struct {
			Resource   string `json:"resource"`
			Action     string `json:"action"`
			StatusCode int    `json:"status_code"`
		} `json:"data"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 1 {
		t.Fatalf("expected one stored access, got %s", rec.Body.String())
	}
	if got.Data[0].Resource != "patient-records" || got.Data[0].Action != "read" || got.Data[0].StatusCode != http.StatusOK {
		t.Errorf("unexpected access record %+v", got.Data[0])
	}
}

func TestAPIRequiresAuthInJWTMode(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "jwt"
	cfg.AuthSigningKey = "test-secret"
	be, err := openBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer be.close()
	h := buildServer(cfg, be, hipaa.Plaintext{}, zerolog.Nop(), prometheus.NewRegistry())

	rec := do(t, h, http.MethodGet, "/api/v1/availability", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected /health to stay open, got %d", rec.Code)
	}
}

func TestOpenBackend_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.StoreKeyPrefix = "pc:"

	be, err := openBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer be.close()

	if err := be.store.Put(context.Background(), "k", []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("pc:k") {
		t.Error("expected prefixed key in redis")
	}
	if be.pool != nil {
		t.Error("expected no pool for redis backend")
	}
}

func TestOpenBackend_Unknown(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBackend = "sqlite"
	if _, err := openBackend(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestMigrationSchema(t *testing.T) {
	cfg := testConfig()
	if got := migrationSchema("", cfg); got != "public" {
		t.Errorf("expected public without flag or DB_SCHEMA, got %s", got)
	}
	cfg.DBSchema = "tenant_a"
	if got := migrationSchema("", cfg); got != "tenant_a" {
		t.Errorf("expected DB_SCHEMA tenant_a, got %s", got)
	}
	if got := migrationSchema("tenant_b", cfg); got != "tenant_b" {
		t.Errorf("expected --schema to win, got %s", got)
	}
}

func TestWriteExport(t *testing.T) {
	body := []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")

	t.Run("stdout", func(t *testing.T) {
		var out bytes.Buffer
		if err := writeExport(&out, "-", "dr.ics", body); err != nil {
			t.Fatalf("writeExport: %v", err)
		}
		if !bytes.Equal(out.Bytes(), body) {
			t.Errorf("expected body on stdout, got %q", out.String())
		}
	})

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		var out bytes.Buffer
		if err := writeExport(&out, dir, "dr.ics", body); err != nil {
			t.Fatalf("writeExport: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "dr.ics"))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(data, body) {
			t.Errorf("unexpected file content %q", data)
		}
		if !strings.Contains(out.String(), "Wrote ") {
			t.Errorf("expected summary line, got %q", out.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.ics")
		if err := writeExport(&bytes.Buffer{}, path, "dr.ics", body); err != nil {
			t.Fatalf("writeExport: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	})
}
