// Command orchestrator-service runs the Orchestrator service: the
// public API gateway that fans Chat out to Retrieval and Generation
// and proxies document operations to Ingestion.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/liliang-cn/ragomesh/internal/config"
	"github.com/liliang-cn/ragomesh/internal/httpmw"
	"github.com/liliang-cn/ragomesh/internal/orchestrator"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "orchestrator-service",
		Short: "Run the ragomesh Orchestrator service",
		RunE:  run,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "configuration file path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrchestrator(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "orchestrator").Logger()

	clients := orchestrator.NewClients(cfg.RetrievalServiceURL, cfg.GenerationServiceURL, cfg.IngestionServiceURL)
	svc := orchestrator.NewService(clients)
	handler := orchestrator.NewHandler(svc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(httpmw.RequestID(), httpmw.Logger(logger), httpmw.Recovery(logger), httpmw.CORS())
	handler.Register(router)

	return serve(cfg.Server.Host, cfg.Server.Port, router, logger)
}

func serve(host string, port int, handler http.Handler, logger zerolog.Logger) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		logger.Info().Str("addr", addr).Msg("orchestrator service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info().Msg("stopped gracefully")
	return nil
}
