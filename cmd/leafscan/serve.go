package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/leafscan/leafscan-api/internal/handlers"
	"github.com/leafscan/leafscan-api/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the diagnosis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger := loadConfig()

		p, err := pipeline.New(config, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		defer p.Close()

		handler := handlers.NewHandler(p, logger)

		mux := http.NewServeMux()
		mux.HandleFunc("/health", enableCORS(handler.Health))
		mux.HandleFunc("/diagnose", enableCORS(handler.Diagnose))

		port := os.Getenv("PORT")
		if port == "" {
			port = config.GetStringOrDefault("port", "8080")
		}

		log.Printf("Server starting on port %s", port)
		log.Println("Endpoints:")
		log.Println("  GET  /health   - Health check")
		log.Println("  POST /diagnose - Diagnose from image upload")

		return http.ListenAndServe(":"+port, mux)
	},
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
