package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/star2win/listprep/internal/core"
	"github.com/star2win/listprep/internal/csvio"
	"github.com/star2win/listprep/internal/logging"
	"github.com/star2win/listprep/internal/schema"
)

// sourceResponse describes one registered source for the API.
type sourceResponse struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Columns []string `json:"columns"`
}

// handleListSources returns the registered source layouts.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := schema.All()
	resp := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp = append(resp, sourceResponse{
			Key:     src.Key,
			Label:   src.Label,
			Columns: src.OutputColumns(),
		})
	}
	writeJSON(w, resp)
}

// handleHistory returns recent runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.service.History()
	if !history.Enabled() {
		writeError(w, r, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	entries, err := history.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, entries)
}

// handleStartRun accepts the input tables as a multipart form and begins an
// asynchronous hygiene run.
//
// Form fields: source (required), incoming_source, excluded_tag.
// Form files: master (required), incoming (repeatable), bounced,
// unsubscribed, excluded.
//
// The uploaded files are buffered in memory before the run starts; the
// request body is bounded by the configured maximum file size.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Run.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	sourceKey := r.FormValue("source")
	if sourceKey == "" {
		writeError(w, r, http.StatusBadRequest, "missing source")
		return
	}
	if _, ok := schema.Get(sourceKey); !ok {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown source: %s", sourceKey))
		return
	}

	req := core.RunRequest{
		Source:         sourceKey,
		IncomingSource: r.FormValue("incoming_source"),
		ExcludedTag:    r.FormValue("excluded_tag"),
	}

	master, err := bufferFile(r, "master")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if master == nil {
		writeError(w, r, http.StatusBadRequest, "no master file provided")
		return
	}
	req.Master = *master

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["incoming"] {
			in, err := bufferHeader(fh)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			req.Incoming = append(req.Incoming, *in)
		}
	}

	if req.Bounced, err = bufferFile(r, "bounced"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Unsubscribed, err = bufferFile(r, "unsubscribed"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Excluded, err = bufferFile(r, "excluded"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := s.service.StartRun(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if err == core.ErrTooManyRuns {
			status = http.StatusTooManyRequests
		}
		writeError(w, r, status, err.Error())
		return
	}

	logging.WithFields(r.Context(), "run_id", runID, "source", sourceKey).Info("run started",
		"master", req.Master.Name,
		"incoming_files", len(req.Incoming),
	)

	writeJSON(w, map[string]string{"run_id": runID})
}

// bufferFile reads one optional uploaded file fully into memory so the run
// can consume it after the request body is gone. Returns nil when the field
// is absent.
func bufferFile(r *http.Request, field string) (*core.RunInput, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	return &core.RunInput{Name: header.Filename, Reader: bytes.NewReader(data)}, nil
}

// bufferHeader buffers one file of a repeatable multipart field.
func bufferHeader(fh *multipart.FileHeader) (*core.RunInput, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return &core.RunInput{Name: fh.Filename, Reader: bytes.NewReader(data)}, nil
}

// handleRunProgress streams run progress via Server-Sent Events.
func (s *Server) handleRunProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		writeError(w, r, http.StatusBadRequest, "missing run ID")
		return
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventID := 0
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			eventID++
			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleRunResult returns the final result of a run as JSON, blocking until
// the run completes.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		writeError(w, r, http.StatusBadRequest, "missing run ID")
		return
	}

	result, err := s.service.Result(r.Context(), runID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, result)
}

// handleRunDownload returns the merged output table as a CSV attachment.
func (s *Server) handleRunDownload(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		writeError(w, r, http.StatusBadRequest, "missing run ID")
		return
	}

	result, err := s.service.Result(r.Context(), runID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_prepped_%s.csv", result.Source, timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := csvio.WriteTable(w, result.Columns, result.Rows); err != nil {
		// Headers are already sent; the broken download is all the
		// client will see.
		return
	}
}

// handleCancelRun cancels an in-progress run.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		writeError(w, r, http.StatusBadRequest, "missing run ID")
		return
	}

	if err := s.service.CancelRun(runID); err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"cancelled"}`))
}
