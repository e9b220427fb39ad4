package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/bahn-go/api/handlers"
	"github.com/jusunglee/bahn-go/internal/config"
	"github.com/jusunglee/bahn-go/pkg/bahn"
)

func main() {
	var (
		port       = flag.Int("port", 0, "Server port (overrides config)")
		configPath = flag.String("config", "", "Optional YAML config file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	client, err := bahn.NewLocal(bahn.Config{
		ClientID: cfg.Credentials.ClientID,
		APIKey:   cfg.Credentials.APIKey,
		BaseURL:  cfg.Client.BaseURL,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		log.Fatalf("Failed to create bahn client: %v", err)
	}

	// Create HTTP server
	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)

	// Add middleware
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
