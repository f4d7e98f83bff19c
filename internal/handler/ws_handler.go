package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/chat-relay/internal/config"
	"github.com/weiawesome/chat-relay/internal/hub"
	"github.com/weiawesome/chat-relay/internal/relay"
	"github.com/weiawesome/chat-relay/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades relay sockets and drives the connection lifecycle:
// join on accept, route every inbound frame, leave exactly once when the
// transport drops.
type WSHandler struct {
	hub     *hub.Hub
	service relay.Service
	wsCfg   config.WebSocketConfig
}

// NewWSHandler creates the relay socket handler.
func NewWSHandler(h *hub.Hub, svc relay.Service, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

// RegisterRoutes mounts the relay socket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and starts the client pumps.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	if err := h.service.HandleConnect(context.Background(), client); err != nil {
		log.L().Error().Str(log.FieldClientID, client.ID).Err(err).Msg("connect failed")
		h.hub.Unregister(client)
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleMessage)
		h.service.HandleDisconnect(context.Background(), client)
	}()
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	if err := h.service.HandleMessage(context.Background(), client, message); err != nil {
		log.L().Debug().Str(log.FieldClientID, client.ID).Err(err).Msg("message not relayed")
	}
}
