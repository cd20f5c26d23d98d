package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/broker"
	"github.com/onction/power-dashboard/internal/config"
	"github.com/onction/power-dashboard/internal/database"
	"github.com/onction/power-dashboard/internal/logger"
	"github.com/onction/power-dashboard/internal/repository"
	"github.com/onction/power-dashboard/internal/service"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Setup(config.LogLevel(), config.LogFormat())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, config.DatabaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	repos := repository.New(db)
	if err := repos.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}
	ingest := service.NewIngestService(repos)

	client, err := broker.Connect(config.MQTTBroker(), config.MQTTClientID()+"-ingestor", config.MQTTTopicPrefix())
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect")
	}
	defer client.Close()

	handler := func(topic string, payload []byte) {
		id, err := ingest.FromMQTT(ctx, topic, payload)
		if err != nil {
			log.Error().Err(err).Msg("ingest failed")
			return
		}
		log.Info().Int64("snapshot_id", id).Str("size", humanize.Bytes(uint64(len(payload)))).Msg("snapshot archived")
	}
	if err := client.SubscribeSnapshots(handler); err != nil {
		log.Fatal().Err(err).Msg("subscribe failed")
	}

	log.Info().Msg("ingestor running; Ctrl+C to stop")
	<-ctx.Done()
}
