package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"caredesk.io/patientms/internal/api"
	"caredesk.io/patientms/internal/metrics"
	"caredesk.io/patientms/internal/store"
	"caredesk.io/patientms/pkg/zerolog_config"
)

func main() {
	// Load .env file if present
	err := godotenv.Load(".env")
	if err != nil {
		log.Info().Msg("Not found .env file in current directory, assuming environment variables are set")
	}

	// Get configuration from environment
	elasticsearchURL := os.Getenv("ELASTICSEARCH_URL")
	apiPort := getEnvOrDefault("API_PORT", "8080")
	apiLogLevel := getEnvOrDefault("API_LOG_LEVEL", "info")

	// Set app prefix
	zerolog_config.SetAppPrefix("patientms-api")

	// Initialize zerolog with Elasticsearch
	zerolog_config.StartupWithEnv(elasticsearchURL, "logs", apiLogLevel)

	log.Info().Msg("Starting patientms-api service")

	// Start system metrics collection
	metrics.StartSystemMetricsCollection("patientms-api")

	// Select the store backend (JSON file by default)
	st, err := store.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}

	// Setup routes
	router := api.SetupRoutes(st)

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + apiPort,
		Handler: router,
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", apiPort).
			Msg("Server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown server with timeout
	shutdownTimeout := 30 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	// Close the store if the backend holds a connection
	if closer, ok := st.(interface{ Close() error }); ok {
		log.Info().Msg("Closing store connection...")
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store connection")
		}
	}

	log.Info().Msg("API service shutdown complete")
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
