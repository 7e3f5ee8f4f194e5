package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"logmerge/pkg/httperror"
	"logmerge/pkg/inputtype"
	"logmerge/pkg/logmerge"
	"logmerge/pkg/markdown"
)

// Form field names of the two uploaded logs.
const (
	fieldLeft  = "file1"
	fieldRight = "file2"
)

// multipartMemory is how much of an upload is kept in memory before the
// multipart reader spills to temporary files.
const multipartMemory = 32 << 20

func (s *Server) handleIndex(ctx context.Context, r *http.Request) ([]byte, error) {
	if r.Method != http.MethodGet {
		return nil, httperror.HTTPError{StatusCode: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	}

	var buf bytes.Buffer
	err := s.tmpl.ExecuteTemplate(&buf, "index.html", map[string]interface{}{
		"BasePath":     s.getBasePath(r),
		"UploadBudget": s.monitor.UploadBudget(ctx),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// upload is one parsed log from the request.
type upload struct {
	name    string
	entries []logmerge.Entry
}

// handleUpload parses both uploaded logs, merges them and renders the result
// as an HTML table, or as markdown/JSON when ?format= asks for it.
func (s *Server) handleUpload(ctx context.Context, r *http.Request) ([]byte, error) {
	if r.Method != http.MethodPost {
		return nil, httperror.HTTPError{StatusCode: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "html", "markdown", "json":
	default:
		s.metrics.uploads.WithLabelValues(resultBadRequest).Inc()
		return nil, httperror.New(http.StatusBadRequest, "Unknown format %q", format)
	}

	budget := s.monitor.UploadBudget(ctx)
	r.Body = http.MaxBytesReader(nil, r.Body, budget)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.uploads.WithLabelValues(resultTooLarge).Inc()
			return nil, httperror.New(http.StatusRequestEntityTooLarge,
				"Upload exceeds the limit of %d bytes", budget)
		}
		s.metrics.uploads.WithLabelValues(resultBadRequest).Inc()
		return nil, httperror.New(http.StatusBadRequest, "Invalid upload: %v", err)
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Failed to remove multipart temp files", "error", err)
		}
	}()

	left, err := s.parseUpload(r, fieldLeft)
	if err != nil {
		return nil, err
	}
	right, err := s.parseUpload(r, fieldRight)
	if err != nil {
		return nil, err
	}

	rows := s.merge(left.entries, right.entries)
	s.metrics.uploads.WithLabelValues(resultOK).Inc()

	slog.Debug("Merged uploads",
		"left", left.name, "left_entries", len(left.entries),
		"right", right.name, "right_entries", len(right.entries),
		"rows", len(rows))

	switch format {
	case "markdown":
		return nil, &downloadError{
			contentType: "text/markdown; charset=utf-8",
			filename:    "merged.md",
			data:        []byte(markdown.Document(left.name, right.name, rows)),
		}
	case "json":
		data, err := json.Marshal(rows)
		if err != nil {
			return nil, err
		}
		return nil, &contentTypeError{contentType: "application/json", data: data}
	}

	var first, last time.Time
	if len(rows) > 0 {
		first, last = rows[0].Timestamp, rows[len(rows)-1].Timestamp
	}

	var buf bytes.Buffer
	err = s.tmpl.ExecuteTemplate(&buf, "result.html", map[string]interface{}{
		"BasePath":  s.getBasePath(r),
		"LeftName":  left.name,
		"RightName": right.name,
		"Rows":      rows,
		"Stats":     logmerge.Summarize(rows),
		"First":     first,
		"Last":      last,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseUpload reads and parses the file sent in field.
func (s *Server) parseUpload(r *http.Request, field string) (upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		s.metrics.uploads.WithLabelValues(resultBadRequest).Inc()
		if errors.Is(err, http.ErrMissingFile) {
			return upload{}, httperror.New(http.StatusBadRequest, "Missing file %q", field)
		}
		return upload{}, httperror.New(http.StatusBadRequest, "Failed to read file %q: %v", field, err)
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(header.Filename)
	content, typ, err := inputtype.Check(file)
	if err != nil {
		if errors.Is(err, inputtype.ErrBinary) {
			s.metrics.uploads.WithLabelValues(resultBinary).Inc()
			return upload{}, httperror.New(http.StatusUnsupportedMediaType, "%s: not a text log (%v)", name, err)
		}
		s.metrics.uploads.WithLabelValues(resultBadRequest).Inc()
		return upload{}, httperror.New(http.StatusBadRequest, "%s: %v", name, err)
	}
	if typ != inputtype.InputTypeLog {
		slog.Debug("Upload does not look like a plain log", "file", name, "type", typ)
	}

	entries, err := logmerge.ParseReader(content)
	if err != nil {
		if errors.Is(err, logmerge.ErrMalformedTimestamp) {
			s.metrics.uploads.WithLabelValues(resultMalformed).Inc()
			return upload{}, httperror.New(http.StatusUnprocessableEntity, "%s: %v", name, err)
		}
		s.metrics.uploads.WithLabelValues(resultBadRequest).Inc()
		return upload{}, httperror.New(http.StatusBadRequest, "%s: %v", name, err)
	}

	s.metrics.entries.WithLabelValues(sideOf(field)).Add(float64(len(entries)))
	return upload{name: name, entries: entries}, nil
}

func sideOf(field string) string {
	if field == fieldLeft {
		return "left"
	}
	return "right"
}

// merge runs the merge and records row metrics.
func (s *Server) merge(left, right []logmerge.Entry) []logmerge.MergedEntry {
	start := time.Now()
	rows := logmerge.Merge(left, right)
	s.metrics.mergeDuration.Observe(time.Since(start).Seconds())
	s.metrics.observeRows(logmerge.Summarize(rows))
	return rows
}

func (s *Server) handleStatus(ctx context.Context, r *http.Request) ([]byte, error) {
	if r.Method != http.MethodGet {
		return nil, httperror.HTTPError{StatusCode: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	}

	status, err := s.monitor.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read system status: %w", err)
	}
	data, err := json.Marshal(status)
	if err != nil {
		return nil, err
	}
	return nil, &contentTypeError{contentType: "application/json", data: data}
}
