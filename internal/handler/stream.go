package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/service"
	"github.com/coldreach/email-generator/pkg/logger"
	"github.com/coldreach/email-generator/pkg/metrics"
)

// Feed timing defaults.
const (
	DefaultPollInterval      = 2 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	replayBatch              = 50
)

// EventHistory reads generation events after a sequence number.
type EventHistory interface {
	History(ctx context.Context, afterSequence uint64, limit int) (*model.ListEventsResponse, error)
}

// StreamHandler serves the generation event feed over SSE.
type StreamHandler struct {
	history   EventHistory
	logger    *logger.Logger
	poll      time.Duration
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(history *service.EmailService, log *logger.Logger) *StreamHandler {
	return newStreamHandler(history, log, DefaultPollInterval, DefaultHeartbeatInterval)
}

func newStreamHandler(history EventHistory, log *logger.Logger, poll, heartbeat time.Duration) *StreamHandler {
	return &StreamHandler{
		history:   history,
		logger:    log,
		poll:      poll,
		heartbeat: heartbeat,
	}
}

// ReplayCompleteEvent marks the end of the backlog.
type ReplayCompleteEvent struct {
	LastSequence uint64 `json:"lastSequence"`
	EventCount   int    `json:"eventCount"`
}

// HeartbeatEvent keeps idle connections open.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent reports a feed failure to the client.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stream handles GET /api/v1/emails/events/stream
// Supports ?after=N for resuming from a specific point
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var afterSequence uint64
	if a := r.URL.Query().Get("after"); a != "" {
		seq, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be a sequence number")
			return
		}
		afterSequence = seq
	}

	// Fail before switching to SSE so the client gets a proper status.
	first, err := h.history.History(ctx, afterSequence, replayBatch)
	if err != nil {
		respondError(w, h.logger, err, "failed to read events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]uint64{"after": afterSequence})

	cursor, replayed, ok := h.drain(ctx, w, flusher, first, afterSequence)
	if !ok {
		return
	}

	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		LastSequence: cursor,
		EventCount:   replayed,
	})
	h.logger.Info("event replay complete",
		zap.Int("events_replayed", replayed),
		zap.Uint64("last_sequence", cursor),
	)

	poll := time.NewTicker(h.poll)
	defer poll.Stop()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected", zap.Uint64("last_sequence", cursor))
			return

		case <-poll.C:
			resp, err := h.history.History(ctx, cursor, replayBatch)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Warn("failed to poll events", zap.Error(err))
				continue
			}
			if cursor, _, ok = h.drain(ctx, w, flusher, resp, cursor); !ok {
				return
			}

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &HeartbeatEvent{
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

// drain sends resp and any further pages. It returns the new cursor, the
// number of events sent and false when the feed should stop.
func (h *StreamHandler) drain(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, resp *model.ListEventsResponse, cursor uint64) (uint64, int, bool) {
	sent := 0
	for {
		for _, event := range resp.Events {
			if ctx.Err() != nil {
				return cursor, sent, false
			}
			sendSSEEvent(w, flusher, "event", event)
			cursor = event.Sequence
			sent++
		}
		if !resp.HasMore {
			return cursor, sent, true
		}

		var err error
		resp, err = h.history.History(ctx, cursor, replayBatch)
		if err != nil {
			h.logger.Error("failed to replay events", zap.Error(err))
			sendSSEEvent(w, flusher, "error", &ErrorEvent{
				Code:    "replay_error",
				Message: "Failed to replay events",
			})
			return cursor, sent, false
		}
	}
}

// sendSSEEvent sends a Server-Sent Event.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
