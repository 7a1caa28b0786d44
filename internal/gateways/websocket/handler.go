package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// @Summary Realtime change feed
// @Description Upgrades to a websocket that streams row changes. Repeat the table parameter to follow several tables; omit it to follow all.
// @Tags Realtime
// @Param table query []string false "Tables to follow" collectionFormat(multi)
// @Success 101
// @Failure 400 {object} map[string]string
// @Router /api/ws [get]
func (h *Hub) ServeWS(c *gin.Context) {
	tables := make(map[string]bool)
	for _, t := range c.QueryArray("table") {
		if len(h.known) > 0 && !h.known[t] {
			h.logger.Warnw("WebSocket connection rejected: unknown table",
				"table", t,
				"client_ip", c.ClientIP(),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown table: " + t})
			return
		}
		tables[t] = true
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection", "error", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		ID:     generateClientID(),
		tables: tables,
		send:   make(chan Frame, sendBuffer),
	}

	h.logger.Infow("WebSocket connection established",
		"client_id", client.ID,
		"client_ip", c.ClientIP(),
		"user_agent", c.GetHeader("User-Agent"),
	)

	if !h.join(client) {
		conn.Close()
		return
	}

	written := make(chan struct{})
	go func() {
		defer close(written)
		client.writePump()
	}()

	client.readPump()
	h.leave(client)
	<-written
}

// readPump only watches for the peer going away; clients never send frames.
func (c *Client) readPump() {
	pongWait := 2 * c.hub.PingInterval
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.hub.logger.Warnw("Failed to write frame", "client_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
