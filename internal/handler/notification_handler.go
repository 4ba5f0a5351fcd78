package handler

import (
	"os"

	"insightflow-be/internal/pkg/logger"
	internalWS "insightflow-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// NotificationHandler upgrades authenticated connections onto the hub.
type NotificationHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewNotificationHandler(hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/notifications", h.ServeWs)
}

// ServeWs handles websocket requests from the peer. Browsers cannot
// set headers on websocket handshakes, so the token is accepted from
// the query string as well.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("NotificationHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	orgID, ok := claims["org_id"].(string)
	if !ok || orgID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing org_id"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"org_id": orgID})
			internalWS.ServeWs(h.hub, conn, orgID)
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"org_id": orgID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
