package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Des1red/clihelp"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aegisvault/aegis-monitor/pkg/api"
	"github.com/aegisvault/aegis-monitor/pkg/config"
	"github.com/aegisvault/aegis-monitor/pkg/hoststats"
	"github.com/aegisvault/aegis-monitor/pkg/logging"
	"github.com/aegisvault/aegis-monitor/pkg/metrics"
	"github.com/aegisvault/aegis-monitor/pkg/realtime"
	"github.com/aegisvault/aegis-monitor/pkg/redisbus"
	"github.com/aegisvault/aegis-monitor/pkg/services"
	"github.com/aegisvault/aegis-monitor/pkg/timeplus"
)

// @title AegisVault Monitor API
// @version 1.0
// @description Live security feeds for the AegisVault console
// @BasePath /api

func printHelp() {
	fmt.Println("aegis-server - AegisVault live monitoring console")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  aegis-server [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	clihelp.Print(
		clihelp.F("--config", "path", "YAML config file"),
		clihelp.F("--port", "string", "HTTP listen port"),
		clihelp.F("--log-level", "string", "Log level (debug | info | warn | error)"),
		clihelp.F("--keep-alive", "bool", "Keep every view mounted (false mounts only the active tab)"),
		clihelp.F("--default-tab", "string", "Tab activated at start"),
		clihelp.F("--help", "", "Show this help"),
	)
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  Every config key can also be set as AEGIS_<SECTION>_<KEY>, e.g. AEGIS_FEEDS_LOGS_CAPACITY.")
	fmt.Println("  A .env file in the working directory is loaded first.")
}

// consoleOptions turns the feed configuration into view options
func consoleOptions(cfg *config.Config) services.Options {
	feedOpts := func(f config.FeedConfig) services.FeedOptions {
		return services.FeedOptions{Interval: f.Interval, Capacity: f.Capacity, Probability: f.Probability}
	}
	opts := services.DefaultOptions()
	opts.Alerts = feedOpts(cfg.Feeds.Alerts)
	opts.Threats = feedOpts(cfg.Feeds.Threats.FeedConfig)
	opts.Packets = feedOpts(cfg.Feeds.Packets)
	opts.Logs = feedOpts(cfg.Feeds.Logs)
	opts.Network = feedOpts(cfg.Feeds.Network)
	opts.DashboardInterval = cfg.Feeds.Dashboard.Interval
	opts.ScanDelay = cfg.Feeds.Threats.ScanDelay
	opts.IDStrategy = cfg.Console.IDStrategy
	return opts
}

func main() {
	// A .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Failed to load .env: %v", err)
	}

	// Parse command line flags
	fs := pflag.NewFlagSet("aegis-server", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	help := fs.BoolP("help", "h", false, "show this help")
	fs.Usage = printHelp
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if *help {
		printHelp()
		return
	}
	configPath, _ := fs.GetString("config")

	// Load configuration
	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		logrus.Warnf("Failed to set up log file: %v", err)
	}
	defer logCloser.Close()
	logrus.Infof("Log level set to: %s", logrus.GetLevel().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var workers sync.WaitGroup
	run := func(fn func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn(ctx)
		}()
	}

	// Event sinks
	hub := realtime.NewHub()
	run(hub.Run)
	sinks := services.MultiSink{hub}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		collector.GaugeFunc("realtime_clients", "Connected realtime subscribers.", func() float64 { return float64(hub.Clients()) })
		collector.GaugeFunc("realtime_dropped_events", "Events the realtime hub dropped while busy.", func() float64 { return float64(hub.Dropped()) })
		sinks = append(sinks, collector)
	}

	if cfg.Timeplus.Enabled {
		tpClient, err := timeplus.NewClient(&cfg.Timeplus)
		if err != nil {
			logrus.Fatalf("Failed to create Timeplus client: %v", err)
		}
		defer tpClient.Close()

		// Set up required streams with proper schemas
		if err := timeplus.SetupStreams(ctx, tpClient, cfg.Timeplus.StreamPrefix); err != nil {
			logrus.Warnf("Failed to set up streams: %v", err)
		}
		tpSink := timeplus.NewSink(tpClient, cfg.Timeplus.StreamPrefix, cfg.Timeplus.BufferSize)
		run(tpSink.Run)
		sinks = append(sinks, tpSink)
		if collector != nil {
			collector.GaugeFunc("timeplus_dropped_events", "Events the Timeplus mirror dropped.", func() float64 { return float64(tpSink.Dropped()) })
		}
		logrus.Infof("Mirroring feeds to Timeplus streams %s*", cfg.Timeplus.StreamPrefix)
	}

	if cfg.Redis.Enabled {
		rdb, err := redisbus.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logrus.Fatalf("Failed to create Redis client: %v", err)
		}
		defer rdb.Close()

		bus := redisbus.NewBus(rdb, cfg.Redis.Channel, 0)
		run(bus.Run)
		sinks = append(sinks, bus)
		if collector != nil {
			collector.GaugeFunc("redis_dropped_events", "Events the Redis bus dropped.", func() float64 { return float64(bus.Dropped()) })
		}
		logrus.Infof("Publishing feed events to Redis channel %s", cfg.Redis.Channel)
	}

	// Console
	opts := consoleOptions(cfg)
	opts.Sink = sinks
	if cfg.HostStats.Enabled {
		opts.HostStats = hoststats.NewCollector()
	}
	console := services.NewConsole(ctx, opts, cfg.Console.KeepAlive)
	if err := console.Start(cfg.Console.DefaultTab); err != nil {
		logrus.Fatalf("Failed to start console: %v", err)
	}
	logrus.Infof("Console started (keepAlive=%t, tab=%s)", cfg.Console.KeepAlive, cfg.Console.DefaultTab)

	// Set up the Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// API routes
	apiHandler := api.NewAPIHandler(console, hub)
	apiHandler.SetupRoutes(e)

	if collector != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(collector.Handler()))
	}

	// Swagger documentation
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Server.AllowedOrigins},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}).Handler(e)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     corsHandler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No write timeout: /ws and /api/events are long-lived
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Stop the feed timers before the sinks they write to
	console.Close()

	// Create a deadline for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	workers.Wait()

	logrus.Info("Server exited properly")
}
