package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"skyhigh/internal/game"
)

type betRequest struct {
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	AutoCashOutAt float64 `json:"auto_cash_out_at,omitempty"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type demoRequest struct {
	UserID  string `json:"user_id"`
	Enabled bool   `json:"enabled"`
}

type autoBetRequest struct {
	UserID string `json:"user_id"`
	game.AutoBetSettings
}

// declineJSON maps engine rejections to a structured 400 so the caller gets
// a machine-readable reason code, not just a boolean.
func declineJSON(c *fiber.Ctx, err error) error {
	var decline *game.Decline
	if errors.As(err, &decline) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    decline.Code,
			"message": decline.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "internal error",
	})
}

func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req betRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	engine := s.manager.Engine(req.UserID)
	if err := engine.PlaceBet(c.Context(), req.Amount, game.BetOptions{AutoCashOutAt: req.AutoCashOutAt}); err != nil {
		return declineJSON(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "state": engine.Snapshot(c.Context())})
}

func (s *FiberServer) cashOutHandler(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	engine := s.manager.Engine(req.UserID)
	if err := engine.CashOut(c.Context()); err != nil {
		return declineJSON(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "state": engine.Snapshot(c.Context())})
}

func (s *FiberServer) resetHandler(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	engine := s.manager.Engine(req.UserID)
	if err := engine.Reset(c.Context()); err != nil {
		return declineJSON(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "state": engine.Snapshot(c.Context())})
}

func (s *FiberServer) demoModeHandler(c *fiber.Ctx) error {
	var req demoRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	engine := s.manager.Engine(req.UserID)
	if err := engine.SetDemoMode(c.Context(), req.Enabled); err != nil {
		return declineJSON(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "state": engine.Snapshot(c.Context())})
}

func (s *FiberServer) startAutoBetHandler(c *fiber.Ctx) error {
	var req autoBetRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	engine := s.manager.Engine(req.UserID)
	if err := engine.StartAutoBet(c.Context(), req.AutoBetSettings); err != nil {
		return declineJSON(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "state": engine.Snapshot(c.Context())})
}

func (s *FiberServer) stopAutoBetHandler(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	engine := s.manager.Engine(req.UserID)
	engine.StopAutoBet(c.Context(), game.StopManual)
	return c.JSON(fiber.Map{"success": true, "state": engine.Snapshot(c.Context())})
}

func (s *FiberServer) gameStateHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}
	return c.JSON(s.manager.Engine(userID).Snapshot(c.Context()))
}

func (s *FiberServer) gameHistoryHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}
	return c.JSON(fiber.Map{
		"user_id": userID,
		"history": s.manager.Engine(userID).History(),
	})
}

func (s *FiberServer) getBalanceHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	balance, err := s.wallet.Balance(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read balance"})
	}
	return c.JSON(fiber.Map{"user_id": userID, "balance": balance})
}

func (s *FiberServer) setBalanceHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	var body struct {
		Balance float64 `json:"balance"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	engine := s.manager.Engine(userID)
	if err := engine.SetBalance(c.Context(), body.Balance); err != nil {
		return declineJSON(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID, "balance": body.Balance, "message": "Balance updated successfully"})
}

func (s *FiberServer) getSettingsHandler(c *fiber.Ctx) error {
	return c.JSON(s.settings.Snapshot(c.Context()))
}

func (s *FiberServer) updateSettingsHandler(c *fiber.Ctx) error {
	current := s.settings.Snapshot(c.Context())
	if err := c.BodyParser(&current); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := s.settings.Save(c.Context(), current); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}
	return c.JSON(current)
}

// gameWebSocketHandler streams engine snapshots to the client and accepts
// game commands over the same connection.
func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	userID := conn.Query("user_id", "")
	if userID == "" {
		conn.Close()
		return
	}

	log.Printf("[WS] New connection from user: %s", userID)

	s.hub.RegisterClient(conn, userID)
	engine := s.manager.Engine(userID)

	ctx := context.Background()

	// Push the current state so a reconnecting client can render immediately.
	initial, _ := json.Marshal(map[string]interface{}{
		"type": "state",
		"data": engine.Snapshot(ctx),
	})
	conn.WriteMessage(websocket.TextMessage, initial)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Read error for user %s: %v", userID, err)
			s.hub.UnregisterClient(conn)
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg struct {
			Type          string  `json:"type"`
			Amount        float64 `json:"amount"`
			AutoCashOutAt float64 `json:"auto_cash_out_at"`
		}
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}

		switch clientMsg.Type {
		case "place_bet":
			if err := engine.PlaceBet(ctx, clientMsg.Amount, game.BetOptions{AutoCashOutAt: clientMsg.AutoCashOutAt}); err != nil {
				writeDecline(conn, err)
			}
		case "cashout":
			if err := engine.CashOut(ctx); err != nil {
				writeDecline(conn, err)
			}
		case "reset":
			if err := engine.Reset(ctx); err != nil {
				writeDecline(conn, err)
			}
		case "ping":
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			conn.WriteMessage(websocket.TextMessage, pong)
		}
	}
}

func writeDecline(conn *websocket.Conn, err error) {
	var decline *game.Decline
	payload := map[string]interface{}{"type": "declined", "message": "internal error"}
	if errors.As(err, &decline) {
		payload["code"] = decline.Code
		payload["message"] = decline.Message
	}
	data, _ := json.Marshal(payload)
	conn.WriteMessage(websocket.TextMessage, data)
}
