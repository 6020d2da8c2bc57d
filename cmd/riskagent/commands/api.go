package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polysense/riskagent/internal/api"
	"github.com/polysense/riskagent/internal/api/handlers"
	"github.com/polysense/riskagent/internal/llm"
	"github.com/polysense/riskagent/internal/risk"
	"github.com/polysense/riskagent/pkg/config"
	"github.com/polysense/riskagent/pkg/logger"
	"github.com/polysense/riskagent/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the risk analysis API server",
	Long: `Start the REST API server for risk signal generation.

Endpoints:
  GET  /health      - Health check
  POST /api/risk    - Run the risk signal pipeline over a research payload
                      (optional ?model= and ?timeout= overrides)

Example:
  riskagent api
  riskagent api --port 8091`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"model": cfg.OpenAI.Model,
	}).Info("Initializing API server")

	// 3. Connect to redis (optional judgment cache)
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without judgment cache")
		redisClient = redis.Disabled()
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "riskagent")

	// 4. Create judgment client and pipeline config
	completer := llm.NewClient(cfg, log, cache)
	pipelineCfg := risk.ConfigFrom(cfg)

	// 5. Create handler and router
	riskHandler := handlers.NewRiskHandler(completer, pipelineCfg, log)
	router := api.NewRouter(riskHandler, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/risk")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
