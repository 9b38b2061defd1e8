// Command retrieval-service runs the Retrieval service: it embeds an
// incoming query and returns the nearest chunks from the shared vector
// collection within the configured distance threshold.
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
	"github.com/liliang-cn/ragomesh/internal/embedding"
	"github.com/liliang-cn/ragomesh/internal/httpmw"
	"github.com/liliang-cn/ragomesh/internal/retrieval"
	"github.com/liliang-cn/ragomesh/internal/vectorstore"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "retrieval-service",
		Short: "Run the ragomesh Retrieval service",
		RunE:  run,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "configuration file path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadRetrieval(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "retrieval").Logger()

	embedder, err := embedding.New(&domain.OpenAIProviderConfig{
		BaseURL:        cfg.OpenAI.BaseURL,
		APIKey:         cfg.OpenAI.APIKey,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		return fmt.Errorf("failed to construct embedder: %w", err)
	}

	store, err := vectorstore.Dial(qdrantAddr(cfg.Qdrant), cfg.Qdrant.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	defer store.Close()

	svc := retrieval.NewService(embedder, store, cfg.Qdrant.CollectionName, cfg.TopKResults, cfg.DistanceThreshold)
	handler := retrieval.NewHandler(svc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(httpmw.RequestID(), httpmw.Logger(logger), httpmw.Recovery(logger), httpmw.CORS())
	handler.Register(router)

	return serve(cfg.Server.Host, cfg.Server.Port, router, logger)
}

func qdrantAddr(cfg config.QdrantConfig) string {
	if cfg.Mode == "local" {
		return cfg.Path
	}
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

func serve(host string, port int, handler http.Handler, logger zerolog.Logger) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		logger.Info().Str("addr", addr).Msg("retrieval service listening")
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
