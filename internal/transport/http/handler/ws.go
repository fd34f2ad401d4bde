package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"plabroom/internal/app"
	"plabroom/internal/realtime"
	"plabroom/internal/transport/http/response"
)

const wsWriteTimeout = 5 * time.Second

// WSHandler upgrades session subscribers onto the realtime hub. Each
// connection owns one hub subscription; events are serialized as JSON
// text frames. The read side only watches for the client closing.
type WSHandler struct {
	hub            *realtime.Hub
	sessionService *app.SessionService
	allowedOrigins []string
}

func NewWSHandler(hub *realtime.Hub, sessionService *app.SessionService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:            hub,
		sessionService: sessionService,
		allowedOrigins: allowedOrigins,
	}
}

func (h *WSHandler) Subscribe(c *gin.Context) {
	code := c.Param("code")

	// Reject unknown codes before upgrading.
	if _, err := h.sessionService.GetState(c.Request.Context(), code); err != nil {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, "session not found")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		log.Printf("websocket accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "session stream closed")

	subID, events := h.hub.Subscribe(code)
	defer h.hub.Unsubscribe(code, subID)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Drain client frames so pings are answered and a client close ends
	// the stream.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// Topic closed: the session ended.
				return
			}
			if err := h.writeEvent(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) writeEvent(ctx context.Context, conn *websocket.Conn, ev realtime.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}
