// Package api bitrec REST API
//
// @title           bitrec REST API
// @version         1.0.0
// @description     This is the REST API for bitrec, a bit-level record codec with schema evolution support.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// StartServer starts the HTTP server with all routes configured
func StartServer(captures ICaptureStore, config ServerConfig) error {
	// Set Swagger host with port
	if SwaggerInfo != nil {
		SwaggerInfo.Host = fmt.Sprintf("localhost:%d", config.Port)
	}

	// Initialize metrics
	metrics := NewMetrics()

	server := NewServer(captures, config, metrics)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(config.APIKey)))

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Record codec operations
		r.Post("/records/encode", metrics.InstrumentHandler("POST", "/api/v1/records/encode", server.handleEncode))
		r.Post("/records/inspect", metrics.InstrumentHandler("POST", "/api/v1/records/inspect", server.handleInspect))
		r.Post("/records/diff", metrics.InstrumentHandler("POST", "/api/v1/records/diff", server.handleDiff))
		r.Post("/records/apply", metrics.InstrumentHandler("POST", "/api/v1/records/apply", server.handleApply))

		// Bit-field migration
		r.Post("/bitfields/migrate", metrics.InstrumentHandler("POST", "/api/v1/bitfields/migrate", server.handleMigrate))

		// Captures
		r.Post("/captures", metrics.InstrumentHandler("POST", "/api/v1/captures", server.handleCreateCapture))
		r.Get("/captures", metrics.InstrumentHandler("GET", "/api/v1/captures", server.handleListCaptures))
		r.Get("/captures/{id}", metrics.InstrumentHandler("GET", "/api/v1/captures/{id}", server.handleGetCapture))
		r.Put("/captures/{id}", metrics.InstrumentHandler("PUT", "/api/v1/captures/{id}", server.handleUpdateCapture))
		r.Delete("/captures/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/captures/{id}", server.handleDeleteCapture))
		r.Get("/captures/{id}/inspect", metrics.InstrumentHandler("GET", "/api/v1/captures/{id}/inspect", server.handleInspectCapture))

		// Diagnostics
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", server.handleStats))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/swagger/" || path == "/swagger/index.html" {
			// Serve the Swagger UI HTML
			w.Header().Set("Content-Type", "text/html")
			html := `<!DOCTYPE html>
<html>
<head>
	 <title>bitrec API Documentation</title>
	 <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	 <div id="swagger-ui"></div>
	 <script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	 <script>
	   window.onload = function() {
	     SwaggerUIBundle({
	       url: '/swagger/swagger.json',
	       dom_id: '#swagger-ui',
	       presets: [
	         SwaggerUIBundle.presets.apis,
	         SwaggerUIBundle.presets.standalone
	       ]
	     });
	   };
	 </script>
</body>
</html>`
			w.Write([]byte(html))
			return
		}

		if path == "/swagger/swagger.json" {
			// Serve the dynamically generated Swagger JSON
			doc, err := swag.ReadDoc("swagger")
			if err != nil {
				slog.Error("swagger doc generation failed", "error", err)
				http.Error(w, "Failed to generate Swagger documentation", 500)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(doc))
			return
		}

		// For any other paths, return 404
		http.NotFound(w, r)
	})

	// Start background metrics updater
	go server.startMetricsUpdater()

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	slog.Info("starting bitrec REST API server", "addr", addr)
	slog.Info("metrics available", "url", fmt.Sprintf("http://%s/metrics", addr))
	return http.ListenAndServe(addr, r)
}
