package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/aryansondharva/N9NE/internal/application"
	"github.com/aryansondharva/N9NE/internal/config"
	"github.com/aryansondharva/N9NE/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("n9ne", "Voice assistant backend - manages Murf, AssemblyAI and Gemini API keys")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	envFile := kingpinApp.Flag("env-file", "Path to the .env file with API keys").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Minimum log level (debug, info, warn, error)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	var persistSet bool
	persist := kingpinApp.Flag("persist-credentials", "Save runtime API key overrides in the OS keyring").IsSetByUser(&persistSet).Bool()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	envPath := config.ResolveEnvFile(*envFile)
	envLoaded, err := config.LoadEnvFile(envPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load env file: %v", err))
	}

	cfg, err := config.Load(buildOverrides(*configFile, *port, *logLevel, *rateLimitRPSFlag, *rateLimitBurstFlag, persist, persistSet))
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Debug("env file", zap.String("path", envPath), zap.Bool("loaded", envLoaded))

	app, err := application.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func buildOverrides(configFile, port, logLevel string, rps float64, burst int, persist *bool, persistSet bool) *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: configFile,
	}

	if port != "" {
		overrides.Port = &port
	}

	if logLevel != "" {
		overrides.LogLevel = &logLevel
	}

	if rps >= 0 {
		overrides.RateLimitRPS = &rps
	}

	if burst >= 0 {
		overrides.RateLimitBurst = &burst
	}

	if persistSet {
		overrides.PersistCredentials = persist
	}

	return overrides
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
