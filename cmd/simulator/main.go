package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/config"
	"github.com/onction/power-dashboard/internal/database"
	"github.com/onction/power-dashboard/internal/logger"
	"github.com/onction/power-dashboard/internal/repository"
	"github.com/onction/power-dashboard/internal/simulator"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Setup(config.LogLevel(), config.LogFormat())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var src simulator.Source = simulator.NewFixtureSource(uint64(time.Now().UnixNano()), time.Now)
	if config.ArchiveEnabled() {
		db, err := database.Connect(ctx, config.DatabaseDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()
		src = simulator.NewArchiveSource(repository.New(db))
		log.Info().Msg("replaying archived snapshots")
	}

	app := fiber.New()
	simulator.Register(app, src)

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	addr := config.SimulatorAddr()
	log.Info().Str("addr", addr).Msg("simulator listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
