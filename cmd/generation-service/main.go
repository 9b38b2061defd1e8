// Command generation-service runs the Generation service: it builds
// the RAG prompt from a query and retrieved context and returns the
// LLM's completion.
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
	"github.com/liliang-cn/ragomesh/internal/domain"
	"github.com/liliang-cn/ragomesh/internal/generation"
	"github.com/liliang-cn/ragomesh/internal/httpmw"
	"github.com/liliang-cn/ragomesh/internal/llm"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "generation-service",
		Short: "Run the ragomesh Generation service",
		RunE:  run,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "configuration file path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGeneration(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "generation").Logger()

	generator, err := llm.New(&domain.OpenAIProviderConfig{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		LLMModel:    cfg.OpenAI.LLMModel,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to construct LLM provider: %w", err)
	}

	svc := generation.NewService(generator)
	handler := generation.NewHandler(svc)

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
		logger.Info().Str("addr", addr).Msg("generation service listening")
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
