package server

import (
	"bufio"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"logmerge/internal/sysmon"
	"logmerge/pkg/httperror"
	"logmerge/pkg/logmerge"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures a Server.
type Options struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxUploadBytes caps the size of an upload request. 0 means only the
	// memory-derived budget applies.
	MaxUploadBytes int64
}

type Server struct {
	tmpl     *template.Template
	monitor  *sysmon.Monitor
	registry *prometheus.Registry
	metrics  *metrics
	upgrader websocket.Upgrader
}

func New(opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"formatDuration":  formatDuration,
		"formatTimestamp": formatTimestamp,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		tmpl:     tmpl,
		monitor:  sysmon.New(opts.MaxUploadBytes),
		registry: registry,
		metrics:  newMetrics(registry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin:     checkOrigin,
		},
	}

	return s, nil
}

func formatTimestamp(t time.Time) string {
	return t.Format(logmerge.TimestampLayout)
}

// formatDuration formats the time between start and end as a short
// human-readable string. It returns an empty string below one second.
func formatDuration(start, end time.Time) string {
	if end.IsZero() {
		return ""
	}
	duration := end.Sub(start)
	if duration < time.Second {
		return ""
	}

	seconds := int(duration.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if minutes < 60 {
		if remainingSeconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, remainingSeconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	remainingMinutes := minutes % 60
	if remainingMinutes > 0 {
		return fmt.Sprintf("%dh %dm", hours, remainingMinutes)
	}
	return fmt.Sprintf("%dh", hours)
}

// handlerFunc is the signature of all page handlers
type handlerFunc func(context.Context, *http.Request) ([]byte, error)

// wrapHandler adapts a handlerFunc to http.HandlerFunc
func (s *Server) wrapHandler(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		data, err := h(ctx, r)
		if err != nil {
			// Check for special error types that need custom handling
			if cte, ok := err.(*contentTypeError); ok {
				w.Header().Set("Content-Type", cte.contentType)
				_, _ = w.Write(cte.data)
				return
			}
			if de, ok := err.(*downloadError); ok {
				w.Header().Set("Content-Type", de.contentType)
				w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", de.filename))
				w.Header().Set("Content-Length", strconv.Itoa(len(de.data)))
				_, _ = w.Write(de.data)
				return
			}
			var he httperror.HTTPError
			if errors.As(err, &he) {
				slog.Error("HTTP handler error",
					"method", r.Method,
					"path", r.URL.Path,
					"status", he.StatusCode,
					"error", he.Message)

				var buf bytes.Buffer
				title := http.StatusText(he.StatusCode)
				if title == "" {
					title = "Error"
				}

				err := s.tmpl.ExecuteTemplate(&buf, "error.html", map[string]interface{}{
					"StatusCode": he.StatusCode,
					"Title":      title,
					"Message":    he.Message,
					"BasePath":   s.getBasePath(r),
				})
				if err != nil {
					// Fallback to plain text if template fails
					http.Error(w, he.Message, he.StatusCode)
					return
				}

				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(he.StatusCode)
				_, _ = w.Write(buf.Bytes())
				return
			}
			slog.Error("HTTP handler error",
				"method", r.Method,
				"path", r.URL.Path,
				"status", http.StatusInternalServerError,
				"error", err.Error())
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if len(data) > 0 {
			_, _ = w.Write(data)
		}
	}
}

// contentTypeError represents a response with a specific content type
type contentTypeError struct {
	contentType string
	data        []byte
}

func (e *contentTypeError) Error() string {
	return fmt.Sprintf("response with content-type: %s", e.contentType)
}

// downloadError represents a file download response
type downloadError struct {
	contentType string
	filename    string
	data        []byte
}

func (e *downloadError) Error() string {
	return fmt.Sprintf("download: %s", e.filename)
}

// loggingMiddleware logs each HTTP request
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker to support WebSocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
}

// Flush implements http.Flusher to support streaming
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(staticFS)))

	mux.HandleFunc("/{$}", s.wrapHandler(s.handleIndex))
	mux.HandleFunc("/upload", s.wrapHandler(s.handleUpload))
	mux.HandleFunc("/ws/merge", s.handleWSMerge)

	mux.HandleFunc("/status", s.wrapHandler(s.handleStatus))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return s.loggingMiddleware(mux)
}

func (s *Server) getBasePath(r *http.Request) string {
	// Check for reverse proxy header (standard convention)
	if prefix := r.Header.Get("X-Forwarded-Prefix"); prefix != "" {
		return strings.TrimSuffix(prefix, "/")
	}
	return ""
}

// checkOrigin rejects cross-site WebSocket connections.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests without Origin header (e.g., from CLI clients)
		return true
	}

	host := r.Host
	for _, expected := range []string{"http://" + host, "https://" + host} {
		if origin == expected {
			return true
		}
	}

	slog.Warn("Rejected WebSocket connection from unauthorized origin", "origin", origin, "host", host)
	return false
}
