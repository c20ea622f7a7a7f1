package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/stylecoach/internal/session"
	"github.com/example/stylecoach/internal/usecase"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// Stream event types.
const (
	EventState     = "state"
	EventDetection = "detection"
	EventAnalysis  = "analysis"
	EventThrottled = "throttled"
	EventError     = "error"
)

// StreamEvent is the JSON message sent for every processed or dropped frame.
type StreamEvent struct {
	Type     string                 `json:"type"`
	Session  *session.Session       `json:"session,omitempty"`
	Ready    bool                   `json:"ready,omitempty"`
	Streak   int                    `json:"streak,omitempty"`
	Required int                    `json:"required,omitempty"`
	Analysis *usecase.FrameAnalysis `json:"analysis,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func (h *handler) upgrader() *websocket.Upgrader {
	up := &websocket.Upgrader{
		ReadBufferSize:  32 << 10,
		WriteBufferSize: 32 << 10,
	}
	if len(h.opts.AllowedOrigins) > 0 {
		allowed := make(map[string]bool, len(h.opts.AllowedOrigins))
		for _, origin := range h.opts.AllowedOrigins {
			allowed[origin] = true
		}
		up.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
	return up
}

// stream accepts binary video frames and auto-analyses the session once enough
// consecutive frames carry the evidence the current step needs.
func (h *handler) stream(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")
	ctx := c.Request.Context()

	current, err := h.svc.GetSession(ctx, viewerID, sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Info("stream client connected")
	defer logger.Info("stream client disconnected")

	conn.SetReadLimit(MaxUploadSize)
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	limiter := rate.NewLimiter(rate.Limit(withDefaultFloat(h.opts.StreamFPS, 10)), withDefaultInt(h.opts.StreamBurst, 5))
	debouncer := session.NewDebouncer(h.opts.AutoTriggerFrames)
	required := withDefaultInt(h.opts.AutoTriggerFrames, 1)

	if err := writeEvent(conn, StreamEvent{Type: EventState, Session: current}); err != nil {
		return
	}
	if current.Done() {
		closeStream(conn)
		return
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			logger.Error("failed to set read deadline", zap.Error(err))
			return
		}
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("stream closed unexpectedly", zap.Error(err))
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			if err := writeEvent(conn, StreamEvent{Type: EventError, Error: "frames must be binary"}); err != nil {
				return
			}
			continue
		}

		if !limiter.Allow() {
			if err := writeEvent(conn, StreamEvent{Type: EventThrottled}); err != nil {
				return
			}
			continue
		}

		event, finished := h.processFrame(ctx, logger, viewerID, current, debouncer, required, message)
		if event.Analysis != nil {
			current = event.Analysis.Session
		}
		if err := writeEvent(conn, event); err != nil {
			logger.Warn("failed to write stream event", zap.Error(err))
			return
		}
		if finished || current.Done() {
			closeStream(conn)
			return
		}
	}
}

// processFrame reports finished when the session was completed outside this stream.
func (h *handler) processFrame(ctx context.Context, logger *zap.Logger, viewerID string, current *session.Session, debouncer *session.Debouncer, required int, frame []byte) (StreamEvent, bool) {
	detection, err := h.svc.DetectFrame(ctx, uuid.NewString(), frame)
	if err != nil {
		debouncer.Reset()
		return errorEvent(logger, err), false
	}

	ready := detection.ReadyFor(current.State)
	if !debouncer.Observe(ready) {
		return StreamEvent{Type: EventDetection, Ready: ready, Streak: debouncer.Streak(), Required: required}, false
	}

	analysis, err := h.svc.ApplyDetection(ctx, viewerID, current.ID, detection)
	if err != nil {
		return errorEvent(logger, err), errors.Is(err, session.ErrSessionComplete)
	}
	return StreamEvent{Type: EventAnalysis, Analysis: analysis}, false
}

func errorEvent(logger *zap.Logger, err error) StreamEvent {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("stream frame failed", zap.Error(err))
		return StreamEvent{Type: EventError, Error: http.StatusText(status)}
	}
	return StreamEvent{Type: EventError, Error: err.Error()}
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session complete"),
		time.Now().Add(streamWriteTimeout))
}

func writeEvent(conn *websocket.Conn, event StreamEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

func withDefaultFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func withDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
