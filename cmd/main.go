package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"golang.org/x/time/rate"

	"pet_feeder/internal/broadcast"
	"pet_feeder/internal/config"
	"pet_feeder/internal/engine"
	"pet_feeder/internal/handlers"
	"pet_feeder/internal/hardware"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/metrics"
	"pet_feeder/internal/models"
	"pet_feeder/internal/notification"
	"pet_feeder/internal/repository"
	"pet_feeder/internal/repository/db"
	"pet_feeder/internal/server"
	"pet_feeder/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	tuning, err := cfg.Feeder.Tuning()
	if err != nil {
		log.Fatalw("invalid feeder config", "err", err)
	}

	// open DB
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(sqlDB)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	clock := hardware.NewClock()
	rig := hardware.NewRig(clock, cfg.Simulator.Rig())
	collector := metrics.New(nil, cfg.Metrics.Namespace)

	// live status: websocket hub, optionally mirrored to MQTT
	var ctrl *engine.Controller
	hub := broadcast.NewHub(func() models.MachineStatus { return ctrl.GetCurrentStatus() }, log.Named("hub"))
	publishers := broadcast.Fanout{hub}
	if cfg.MQTT.Broker != "" {
		mq := broadcast.NewMQTTPublisher(cfg.MQTT.Publisher(), log.Named("mqtt"))
		publishers = append(publishers, mq)
		wg.Add(1)
		go func() { defer wg.Done(); mq.Run(ctx) }()
	}

	// owner alerts
	subs := notification.NewSubscriptions()
	sinks := notification.Multi{notification.NewLogSink(log.Named("notify"))}
	var push service.Push
	if cfg.Push.Enabled() {
		wp := notification.NewWebPushSink(&webpush.Options{
			Subscriber:      cfg.Push.Subscriber,
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			TTL:             cfg.Push.TTL,
		}, subs, cfg.Push.Cooldown, log.Named("webpush"))
		sinks = append(sinks, wp)
		push = service.NewPushService(subs, wp.PublicKey())
	}
	dispatcher := notification.NewDispatcher(cfg.Notification.Workers, sinks, cfg.Notification.Timeout, log.Named("notify"))
	dispatcher.Start(ctx)

	ctrl = engine.NewController(engine.Deps{
		Clock:     clock,
		Sensors:   rig,
		Actuator:  rig,
		Store:     repos,
		Sink:      dispatcher,
		Publisher: publishers,
		Metrics:   collector,
		Log:       log.Named("engine"),
	}, tuning)
	if err := ctrl.Init(ctx); err != nil {
		log.Fatalw("failed to init controller", "err", err)
	}
	rig.ApplyCalibration(ctrl.SystemSettings())

	wg.Add(2)
	go func() { defer wg.Done(); ctrl.Run(ctx) }()
	go func() { defer wg.Done(); hub.RunCleanup(ctx, cfg.Hub.CleanupInterval) }()

	// wire dependencies
	services := service.NewService(service.Deps{
		Repos:      repos,
		Controller: ctrl,
		Scales:     rig,
		Push:       push,
		Rig:        rig,
		Offline:    clock,
		Auth:       cfg.Auth.Service(),
		Clock:      clock,
		Log:        log.Named("service"),
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"), handlers.Options{
		WS:        hub.ServeWS,
		Metrics:   collector.Handler(),
		Observer:  collector,
		RateLimit: rate.Limit(cfg.RateLimit.PerSec),
		RateBurst: cfg.RateLimit.Burst,
		CacheTTL:  cfg.HistoryCache,
	})

	// start HTTP server
	srv := server.New(cfg.Server)
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
	wg.Wait()
	dispatcher.Wait()
}

// openDB initializes the SQLite database at path.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "feeder.db")
		path = "feeder.db"
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("http_server_started", "port", port)
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// stop background goroutines; the controller closes the door on exit
	cancel()
}
