package wsserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wordarena/internal/logging"
	"wordarena/internal/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades r to a websocket connection, registers it with reg, and
// runs its read/write pumps until the connection closes.
func ServeWS(reg *registry.Registry, coord Dispatcher, logger *logging.Logger, w http.ResponseWriter, r *http.Request) {
	clientIP := registry.ClientIP(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.LogError(context.Background(), err, "websocket upgrade failed", "client_ip", clientIP)
		return
	}

	connID := uuid.NewString()
	client := NewClient(conn, connID, clientIP, reg, coord, logger)

	if err := reg.Register(connID, clientIP, client); err != nil {
		logger.LogError(context.Background(), err, "websocket connection rejected", "client_ip", clientIP)
		client.Close()
		return
	}

	client.Run()
}
