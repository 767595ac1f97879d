package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/pipeline"
	"github.com/Prabal729/disease-2/internal/predlog"
	"github.com/Prabal729/disease-2/internal/predlog/async"
	"github.com/Prabal729/disease-2/internal/predlog/multi"
	"github.com/Prabal729/disease-2/internal/predlog/postgres"
	"github.com/Prabal729/disease-2/internal/predlog/webhook"
	"github.com/Prabal729/disease-2/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Serve the dashboard API on $PORT (default 8501).

When SYMPTOMDASH_DATABASE_URL is set, every prediction is also mirrored to
Postgres in the background. A mirror that cannot keep up drops records; the
CSV log stays authoritative. SYMPTOMDASH_WEBHOOK_URL forwards records in
batches to an HTTP endpoint.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.New("main")
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	onMirrorError := func(err error) {
		log.Warn("prediction mirror write failed", "error", err)
	}
	var mirrors []predlog.Sink
	if cfg.Database.Enabled() {
		m, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Warn("postgres mirror disabled", "error", err)
		} else {
			mirrors = append(mirrors, async.New(m, async.WithDropOnFull(), async.WithOnError(onMirrorError)))
			log.Info("mirroring predictions to postgres")
		}
	}
	if cfg.Webhook.URL != "" {
		hook := webhook.New(cfg.Webhook.URL,
			webhook.WithBearerToken(cfg.Webhook.Token),
			webhook.WithBatchSize(cfg.Webhook.BatchSize),
			webhook.WithFlushInterval(cfg.Webhook.FlushInterval),
			webhook.WithOnError(onMirrorError),
		)
		mirrors = append(mirrors, async.New(hook, async.WithDropOnFull(), async.WithOnError(onMirrorError)))
		log.Info("forwarding predictions to webhook", "url", cfg.Webhook.URL)
	}

	var mirror predlog.Sink
	if len(mirrors) > 0 {
		mirror = multi.New(mirrors...)
	}

	p, err := pipeline.New(pipeline.Options{Paths: cfg.Paths, Mirror: mirror})
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("close pipeline", "error", err)
		}
	}()

	// Resolve eagerly so a missing artifact shows up in the startup log.
	if b := p.Bundle(); !b.Ready() {
		log.Warn("artifacts incomplete; predictions disabled until reload")
	}

	return server.New(p).ListenAndServe(ctx, ":"+cfg.Server.Port)
}
