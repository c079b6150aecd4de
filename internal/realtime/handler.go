package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is served same-origin behind the site; cross-origin
	// browsers are rejected by default CheckOrigin.
}

// Handler returns the echo handler for GET /v1/ws.  The feed is open:
// guests watching the menu screen live-update before logging in, and
// events never carry anything beyond identifiers.
func Handler(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "websocket upgrade failed"})
		}
		hub.Run(conn)
		return nil
	}
}
