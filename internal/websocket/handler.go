package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a new connection for one organization to the hub.
func ServeWs(hub *Hub, c *websocket.Conn, orgID string) {
	client := &Client{Hub: hub, Conn: c, OrgID: orgID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // runs in the handler goroutine
}
