package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vzahanych/weather-state/internal/state"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler pushes every published state change to WebSocket clients.
// The stream is read-only; client messages are discarded.
type StreamHandler struct {
	upgrader       websocket.Upgrader
	current        *state.CurrentWeatherState
	forecast       *state.ForecastState
	allowedOrigins []string
	logger         *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewStreamHandler(current *state.CurrentWeatherState, forecast *state.ForecastState, logger *zap.Logger, allowedOrigins ...string) *StreamHandler {
	h := &StreamHandler{
		current:        current,
		forecast:       forecast,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		done:           make(chan struct{}),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin allows same-origin requests and origins from the allowlist.
func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}

	h.logger.Warn("Rejected WebSocket connection: origin not in allowlist", zap.String("origin", origin))
	return false
}

func (h *StreamHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("remote_addr", conn.RemoteAddr().String()))
	logger.Info("State stream client connected")
	defer logger.Info("State stream client disconnected")

	currentCh, cancelCurrent := h.current.Subscribe()
	defer cancelCurrent()
	forecastCh, cancelForecast := h.forecast.Subscribe()
	defer cancelForecast()

	closed := make(chan struct{})
	go h.readPump(conn, closed, logger)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var msg StateMessage

		select {
		case <-closed:
			return
		case <-h.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case snap, ok := <-currentCh:
			if !ok {
				return
			}
			resp := NewCurrentResponse(snap)
			msg = StateMessage{Type: MessageTypeCurrent, Current: &resp}
		case snap, ok := <-forecastCh:
			if !ok {
				return
			}
			resp := NewForecastResponse(snap)
			msg = StateMessage{Type: MessageTypeForecast, Forecast: &resp}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug("Failed to write state message", zap.Error(err))
			return
		}
	}
}

// Close ends all open streams. Hijacked connections are not closed by
// http.Server.Shutdown, so the server registers this as a shutdown hook.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// readPump keeps the read deadline fresh and reports when the client goes away.
func (h *StreamHandler) readPump(conn *websocket.Conn, closed chan<- struct{}, logger *zap.Logger) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}
