package server

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1")

	api.Post("/game/bet", s.placeBetHandler)
	api.Post("/game/cashout", s.cashOutHandler)
	api.Post("/game/reset", s.resetHandler)
	api.Post("/game/demo", s.demoModeHandler)
	api.Post("/game/autobet/start", s.startAutoBetHandler)
	api.Post("/game/autobet/stop", s.stopAutoBetHandler)
	api.Get("/game/state/:userId", s.gameStateHandler)
	api.Get("/game/history/:userId", s.gameHistoryHandler)

	api.Get("/user/:userId/balance", s.getBalanceHandler)
	api.Post("/user/:userId/balance", s.setBalanceHandler)

	api.Get("/admin/settings", s.getSettingsHandler)
	api.Put("/admin/settings", s.updateSettingsHandler)

	s.App.Get("/ws", websocket.New(s.gameWebSocketHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"database": s.db.Health(),
		"cache":    s.cache.Health(),
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.GetClientCount(),
		},
	})
}
