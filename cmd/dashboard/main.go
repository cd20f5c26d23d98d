package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/broker"
	"github.com/onction/power-dashboard/internal/cloud"
	"github.com/onction/power-dashboard/internal/config"
	"github.com/onction/power-dashboard/internal/database"
	httpHandlers "github.com/onction/power-dashboard/internal/http"
	"github.com/onction/power-dashboard/internal/live"
	"github.com/onction/power-dashboard/internal/logger"
	"github.com/onction/power-dashboard/internal/metrics"
	"github.com/onction/power-dashboard/internal/report"
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

	locale, err := report.NewLocale(config.ReportLocale())
	if err != nil {
		log.Fatal().Err(err).Msg("report locale")
	}

	var (
		svcOpts  []service.Option
		httpOpts = []httpHandlers.Option{httpHandlers.WithTopConsumers(config.TopConsumers())}
	)

	if config.ArchiveEnabled() {
		db, err := database.Connect(ctx, config.DatabaseDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()

		repos := repository.New(db)
		if err := repos.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("db migrate failed")
		}
		svcOpts = append(svcOpts, service.WithSnapshotArchive(repos))
		httpOpts = append(httpOpts, httpHandlers.WithHistoryArchive(repos))
		log.Info().Msg("snapshot archive enabled")
	}

	if config.MQTTEnabled() {
		mq, err := broker.Connect(config.MQTTBroker(), config.MQTTClientID(), config.MQTTTopicPrefix())
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect")
		}
		defer mq.Close()
		svcOpts = append(svcOpts, service.WithSnapshotArchive(mq), service.WithAlertSink(mq))
		log.Info().Str("broker", config.MQTTBroker()).Msg("mqtt publishing enabled")
	}

	if config.UseCloudServices() {
		awsCfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
		if err != nil {
			log.Fatal().Err(err).Msg("aws config")
		}
		s3c := cloud.NewS3Client(awsCfg, config.S3Bucket())
		alertLog := cloud.NewDynamoDBClient(awsCfg, config.AlertsTable())
		svcOpts = append(svcOpts,
			service.WithReportArchive(s3c, config.ReportPrefix()),
			service.WithSnapshotArchive(s3c),
			service.WithAlertSink(alertLog),
		)
		httpOpts = append(httpOpts,
			httpHandlers.WithReportLister(s3c, config.ReportPrefix()),
			httpHandlers.WithAlertLog(alertLog),
		)
		if arn := config.SNSTopicArn(); arn != "" {
			svcOpts = append(svcOpts, service.WithAlertSink(cloud.NewSNSClient(awsCfg, arn)))
		}
		log.Info().Str("region", config.AWSRegion()).Msg("cloud services enabled")
	}

	client := metrics.New(config.MetricsAPIURL(), config.MetricsTimeout())
	svcs := service.New(client, report.NewEncoder(locale), svcOpts...)

	hub := live.NewHub()
	go hub.Run(ctx)
	liveSrv := &http.Server{Addr: config.LiveAddr(), Handler: hub, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", liveSrv.Addr).Msg("live hub listening")
		if err := liveSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("live hub exit")
		}
	}()

	topN := config.TopConsumers()
	go svcs.Snapshots.Run(ctx, config.RefreshInterval(), func(st *service.State) {
		hub.Publish(live.NewUpdate(st, topN))
	})

	app := fiber.New()
	httpHandlers.Register(app, svcs, httpOpts...)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = liveSrv.Shutdown(shutdownCtx)
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
