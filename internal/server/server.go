package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"skyhigh/internal/cache"
	"skyhigh/internal/database"
	"skyhigh/internal/game"
	"skyhigh/internal/settings"
	"skyhigh/internal/txlog"
	"skyhigh/internal/wallet"
)

type FiberServer struct {
	*fiber.App

	db       database.Service
	cache    cache.Service
	wallet   *wallet.Redis
	settings *settings.RedisStore
	manager  *game.Manager
	hub      *game.Hub
}

func New() *FiberServer {
	db := database.New()

	redisService := cache.New()
	if redisService == nil {
		log.Fatal("[SERVER] Redis is required for wallet and settings storage")
	}

	ledger := wallet.NewRedis(redisService.GetClient())
	store := settings.NewRedisStore(redisService.GetClient())
	recorder := txlog.NewPostgres(db.Pool())

	hub := game.NewHub()
	manager := game.NewManager(hub, ledger, recorder, store)

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "skyhigh",
			AppName:       "skyhigh",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		db:       db,
		cache:    redisService,
		wallet:   ledger,
		settings: store,
		manager:  manager,
		hub:      hub,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	go hub.Run()

	log.Println("[SERVER] Game manager started")

	return server
}

// Shutdown gracefully stops the game engines and closes connections.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] Shutting down...")

	if s.manager != nil {
		s.manager.Stop()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return nil
}
