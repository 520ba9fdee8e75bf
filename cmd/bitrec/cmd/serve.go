/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitrec/pkg/api"
	"github.com/ssargent/bitrec/pkg/config"
	"github.com/ssargent/bitrec/pkg/storage"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bitrec REST API server",
	Long: `Start the bitrec REST API server.

The server exposes the record codec (encode, inspect, diff, apply),
bit-field layout migration, and a persistent capture store for encoded
payloads. All /api/v1 routes require the client API key.

Examples:
  bitrec serve
  bitrec serve --port 9000 --data-dir ./mydata
  bitrec serve --api-key my-client-key`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ok := cmd.Context().Value("config").(*config.Config)
		if !ok {
			cmd.Println("Error: config not found in context")
			os.Exit(1)
		}

		port, _ := cmd.Flags().GetInt("port")
		bind, _ := cmd.Flags().GetString("bind")
		apiKey, _ := cmd.Flags().GetString("api-key")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		// Override config with command line flags if provided
		if port != 0 {
			cfg.Port = port
		}
		if bind != "" {
			cfg.Bind = bind
		}
		if apiKey != "" {
			cfg.Security.ClientAPIKey = apiKey
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		if cfg.Security.ClientAPIKey == "" || cfg.Security.ClientAPIKey == "auto" {
			cmd.Println("Error: no client API key configured. Run 'bitrec init' first or pass --api-key.")
			os.Exit(1)
		}

		cmd.Printf("🚀 Starting bitrec server on %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("📁 Data directory: %s\n", cfg.DataDir)

		if err := startAPIServer(cfg); err != nil {
			cmd.Printf("Error starting server: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to run the server on (overrides config)")
	serveCmd.Flags().String("bind", "", "Address to bind the server to (overrides config)")
	serveCmd.Flags().String("api-key", "", "Client API key (overrides config)")
	serveCmd.Flags().StringP("data-dir", "d", "", "Directory for the capture store (overrides config)")
}

// startAPIServer opens the capture store and blocks serving the REST API.
func startAPIServer(cfg *config.Config) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}

	captures, err := storage.NewCaptureStore(filepath.Join(cfg.DataDir, "captures"))
	if err != nil {
		return fmt.Errorf("failed to open capture store: %w", err)
	}
	defer captures.Close()

	serverConfig := api.ServerConfig{
		Port:          cfg.Port,
		Bind:          cfg.Bind,
		APIKey:        cfg.Security.ClientAPIKey,
		DataDir:       cfg.DataDir,
		MaxRecordSize: cfg.Security.MaxRecordSize,
		Schemas:       cfg.Schemas,
		Layouts:       cfg.Layouts,
	}

	serverFactory := container.GetServerFactory()
	serverStarter := serverFactory.CreateServerStarter()

	return serverStarter.StartServer(captures, serverConfig)
}
