package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"logmerge/pkg/logmerge"
)

const wsWriteTimeout = 10 * time.Second

// wsMergeRequest is the single message a client sends on /ws/merge.
type wsMergeRequest struct {
	Left      string `json:"left"`
	Right     string `json:"right"`
	LeftName  string `json:"left_name,omitempty"`
	RightName string `json:"right_name,omitempty"`
}

// wsMergeMessage is sent by the server: one per merged row, then a final
// message with Done or Error set.
type wsMergeMessage struct {
	Row   *logmerge.MergedEntry `json:"row,omitempty"`
	Done  bool                  `json:"done,omitempty"`
	Stats *logmerge.Stats       `json:"stats,omitempty"`
	Error string                `json:"error,omitempty"`
}

// handleWSMerge merges two logs sent over a WebSocket and streams the rows
// back as they are produced.
func (s *Server) handleWSMerge(w http.ResponseWriter, r *http.Request) {
	budget := s.monitor.UploadBudget(r.Context())

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade to WebSocket", "error", err)
		return
	}
	defer func() {
		if err := ws.Close(); err != nil {
			slog.Debug("Failed to close WebSocket connection", "error", err)
		}
	}()
	ws.SetReadLimit(budget)

	var req wsMergeRequest
	if err := ws.ReadJSON(&req); err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			s.metrics.uploads.WithLabelValues(resultTooLarge).Inc()
			slog.Warn("WebSocket merge request too large", "limit", budget)
			return
		}
		s.metrics.uploads.WithLabelValues(resultBadRequest).Inc()
		s.wsFail(ws, fmt.Sprintf("invalid request: %v", err))
		return
	}

	left, err := logmerge.Parse(req.Left)
	if err != nil {
		s.metrics.uploads.WithLabelValues(resultLabel(err)).Inc()
		s.wsFail(ws, fmt.Sprintf("%s: %v", nameOr(req.LeftName, "left"), err))
		return
	}
	right, err := logmerge.Parse(req.Right)
	if err != nil {
		s.metrics.uploads.WithLabelValues(resultLabel(err)).Inc()
		s.wsFail(ws, fmt.Sprintf("%s: %v", nameOr(req.RightName, "right"), err))
		return
	}
	s.metrics.entries.WithLabelValues("left").Add(float64(len(left)))
	s.metrics.entries.WithLabelValues("right").Add(float64(len(right)))

	start := time.Now()
	var stats logmerge.Stats
	for row := range logmerge.All(left, right) {
		stats.Add(row)
		if err := s.wsWrite(ws, wsMergeMessage{Row: &row}); err != nil {
			slog.Warn("WebSocket client went away during merge", "error", err, "rows_sent", stats.Rows-1)
			return
		}
	}
	s.metrics.mergeDuration.Observe(time.Since(start).Seconds())
	s.metrics.observeRows(stats)
	s.metrics.uploads.WithLabelValues(resultOK).Inc()

	if err := s.wsWrite(ws, wsMergeMessage{Done: true, Stats: &stats}); err != nil {
		slog.Warn("Failed to send merge summary", "error", err)
		return
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteTimeout))
}

func (s *Server) wsWrite(ws *websocket.Conn, msg wsMergeMessage) error {
	if err := ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return ws.WriteJSON(msg)
}

func (s *Server) wsFail(ws *websocket.Conn, message string) {
	slog.Error("WebSocket merge failed", "error", message)
	if err := s.wsWrite(ws, wsMergeMessage{Error: message}); err != nil {
		slog.Debug("Failed to send WebSocket error", "error", err)
	}
}

func resultLabel(err error) string {
	if errors.Is(err, logmerge.ErrMalformedTimestamp) {
		return resultMalformed
	}
	return resultBadRequest
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
