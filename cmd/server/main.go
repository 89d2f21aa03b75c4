package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tyemirov/claimrelay/internal/config"
	"github.com/tyemirov/claimrelay/internal/httpapi"
	"github.com/tyemirov/claimrelay/internal/service"
	"github.com/tyemirov/claimrelay/pkg/logging"
)

func main() {
	configuration, configErr := config.LoadConfig()
	if configErr != nil {
		fallbackLogger := logging.NewLogger("INFO")
		for _, errMsg := range strings.Split(strings.TrimPrefix(configErr.Error(), "configuration errors: "), ", ") {
			fallbackLogger.Error("Configuration error", "detail", errMsg)
		}
		os.Exit(1)
	}

	mainLogger := logging.NewLogger(configuration.LogLevel)

	server, buildErr := buildServer(configuration, mainLogger)
	if buildErr != nil {
		mainLogger.Error("Failed to initialize claim relay", "error", buildErr)
		os.Exit(1)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runErr := run(signalCtx, server, mainLogger); runErr != nil {
		mainLogger.Error("Claim relay stopped with error", "error", runErr)
		stop()
		os.Exit(1)
	}
}

// buildServer wires the configured email sender into the relay and HTTP server.
func buildServer(configuration config.Config, logger *slog.Logger) (*httpapi.Server, error) {
	sender, senderErr := service.NewEmailSender(configuration, logger)
	if senderErr != nil {
		return nil, senderErr
	}

	relayService := service.NewRelayService(sender, service.RelaySettings{
		Provider:         configuration.MailProvider,
		MailTo:           configuration.MailTo,
		MailFrom:         configuration.MailFrom,
		OperationTimeout: configuration.OperationTimeout(),
	}, logger)

	if checkErr := relayService.CheckConfiguration(); checkErr != nil {
		logger.Warn("Claim relay is not fully configured; submissions will be rejected", "provider", configuration.MailProvider, "error", checkErr)
	}

	return httpapi.NewServer(httpapi.Config{
		ListenAddr:           configuration.HTTPListenAddr,
		StaticRoot:           configuration.HTTPStaticRoot,
		AllowedOrigins:       configuration.HTTPAllowedOrigins,
		TrustedProxies:       configuration.HTTPTrustedProxies,
		RelayService:         relayService,
		Logger:               logger,
		MaxMultipartMemory:   configuration.MaxMultipartMemory(),
		SubmitRatePerMin:     configuration.SubmitRatePerMin,
		ShutdownGraceTimeout: configuration.ShutdownGrace(),
	})
}

type lifecycleServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, server lifecycleServer, logger *slog.Logger) error {
	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- server.Start()
	}()

	select {
	case serveErr := <-serveErrors:
		return serveErr
	case <-ctx.Done():
	}

	logger.Info("Shutting down claim relay")
	shutdownErr := server.Shutdown(context.Background())
	serveErr := <-serveErrors
	return errors.Join(shutdownErr, serveErr)
}
