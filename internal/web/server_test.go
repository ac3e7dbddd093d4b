package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/star2win/listprep/internal/config"
	"github.com/star2win/listprep/internal/core"
)

const masterCSV = `EMAIL,NAME,COMPANY_NAME
john@acme.com,"Smith, John",ACME
`

const incomingCSV = `e-mail address,customer name,company
new@x.com,"Doe, Jane",DOECO
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: time.Minute,
		},
		Run: config.RunConfig{
			MaxFileSize:     1 << 20,
			MaxConcurrent:   2,
			MaxWaitTime:     time.Second,
			Timeout:         time.Minute,
			ResultRetention: time.Minute,
		},
		Rate: config.RateLimitConfig{Enabled: false},
	}

	service := core.NewService(cfg.Run, nil)
	return NewServer(service, cfg)
}

// multipartBody builds a run-submission form with the given files.
func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%s): %v", name, err)
		}
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatalf("CreateFormFile(%s): %v", field, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", field, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing form: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func startRun(t *testing.T, srv *Server) string {
	t.Helper()

	body, contentType := multipartBody(t,
		map[string]string{"source": "crm", "incoming_source": "shop"},
		map[string]string{"master": masterCSV, "incoming": incomingCSV},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/runs = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["run_id"] == "" {
		t.Fatal("empty run_id")
	}
	return resp["run_id"]
}

func TestStartRunAndResult(t *testing.T) {
	srv := newTestServer(t)
	runID := startRun(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/result", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET result = %d: %s", rec.Code, rec.Body.String())
	}

	var result core.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.RunID != runID {
		t.Errorf("RunID = %q, want %q", result.RunID, runID)
	}
	if result.Stats.OutputRecords != 2 {
		t.Errorf("OutputRecords = %d, want 2", result.Stats.OutputRecords)
	}
}

func TestRunDownload(t *testing.T) {
	srv := newTestServer(t)
	runID := startRun(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/download", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET download = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "EMAIL,NAME,COMPANY_NAME,Notes") {
		t.Errorf("unexpected header line: %q", strings.SplitN(body, "\n", 2)[0])
	}
	if !strings.Contains(body, "john@acme.com") || !strings.Contains(body, "new@x.com") {
		t.Errorf("download missing rows:\n%s", body)
	}
}

func TestStartRun_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
	}{
		{
			name:   "missing master",
			fields: map[string]string{"source": "crm"},
			files:  map[string]string{},
		},
		{
			name:   "missing source",
			fields: map[string]string{},
			files:  map[string]string{"master": masterCSV},
		},
		{
			name:   "unknown source",
			fields: map[string]string{"source": "nope"},
			files:  map[string]string{"master": masterCSV},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.fields, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestListSources(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/sources = %d", rec.Code)
	}

	var sources []sourceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sources); err != nil {
		t.Fatalf("decoding sources: %v", err)
	}

	keys := make(map[string]bool)
	for _, src := range sources {
		keys[src.Key] = true
	}
	for _, want := range []string{"sendgrid", "crm", "legacy", "shop"} {
		if !keys[want] {
			t.Errorf("missing source %q in %v", want, keys)
		}
	}
}

func TestHistory_NotConfigured(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /api/history = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRunProgress_NotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/does-not-exist/progress", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	var health struct {
		Status        string `json:"status"`
		RunsActive    int    `json:"runs_active"`
		RunsAvailable int    `json:"runs_available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q", health.Status)
	}
	if health.RunsActive != 0 {
		t.Errorf("runs_active = %d, want 0", health.RunsActive)
	}
	if health.RunsAvailable != 2 {
		t.Errorf("runs_available = %d, want 2", health.RunsAvailable)
	}
}

func TestRequestLogging_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(old)

	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, `"request_id"`) {
		t.Errorf("request log missing request_id:\n%s", out)
	}
	if !strings.Contains(out, `"path":"/healthz"`) {
		t.Errorf("request log missing path:\n%s", out)
	}

	// Error responses carry the request ID too.
	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/api/runs/does-not-exist/result", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	out = buf.String()
	if !strings.Contains(out, `"request failed"`) {
		t.Errorf("missing error log entry:\n%s", out)
	}
	if !strings.Contains(out, `"request_id"`) {
		t.Errorf("error log missing request_id:\n%s", out)
	}
}
