package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"videoearn/config"
	"videoearn/internal/database"
	"videoearn/internal/events"
	"videoearn/internal/jobs"
	"videoearn/internal/logger"
	"videoearn/internal/metrics"
	"videoearn/internal/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Server.LogLevel)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	ctx := context.Background()
	if err := database.SeedSettings(ctx, db); err != nil {
		log.WithError(err).Fatal("seed settings")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	provider, err := router.NewPaymentProvider(&cfg.Payment)
	if err != nil {
		log.WithError(err).Fatal("payment provider")
	}
	svcs, err := router.NewServices(cfg, db, log, m, publisher, provider)
	if err != nil {
		log.WithError(err).Fatal("services")
	}
	if err := svcs.Auth.SeedAdmin(ctx); err != nil {
		log.WithError(err).Fatal("seed admin")
	}

	sched, err := jobs.NewScheduler(svcs.Reconcile, svcs.Ledger.Location(), log)
	if err != nil {
		log.WithError(err).Fatal("scheduler")
	}
	if err := sched.ScheduleReconcile(cfg.Jobs.ReconcileCron); err != nil {
		log.WithError(err).Fatal("scheduler")
	}
	sched.Start()

	engine := router.Setup(cfg, db, log, m, prometheus.DefaultGatherer, svcs)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "payment_provider": provider.Name()}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if err := sched.Shutdown(); err != nil {
		log.WithError(err).Error("scheduler shutdown")
	}
	log.Info("server stopped")
}

// newPublisher connects to RabbitMQ when configured. Events are dropped when
// the broker is not configured or unreachable at startup.
func newPublisher(cfg *config.Config, log *logrus.Logger) events.Publisher {
	if cfg.RabbitMQ.URL == "" {
		log.Info("ledger events disabled: set RABBITMQ_URL to enable")
		return events.NopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		log.WithError(err).Warn("ledger events disabled: broker unreachable")
		return events.NopPublisher{}
	}
	return p
}
