/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitrec/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize bitrec configuration",
	Long: `Initialize the bitrec configuration file with generated keys, the
default record schemas and the default bit-field layouts.

This command will:
- Create the configuration directory if needed
- Generate secure system and client API keys
- Seed the "profile" schema and "telemetry" layout as editable starting points

Examples:
  bitrec init
  bitrec init --data-dir ./mydata --print-keys
  bitrec init --config ./bitrec.yaml --force`,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")
		printKeys, _ := cmd.Flags().GetBool("print-keys")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists. Use --force to reinitialize.\n")
			cmd.Printf("Configuration location: %s\n", configPath)
			return
		}

		cmd.Printf("Initializing bitrec...\n")

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			cmd.Printf("Error bootstrapping config: %v\n", err)
			os.Exit(1)
		}

		cmd.Printf("✅ Configuration created at %s\n", configPath)
		cmd.Printf("📁 Data directory: %s\n", cfg.DataDir)
		cmd.Printf("Schemas: %d, layouts: %d\n", len(cfg.Schemas), len(cfg.Layouts))

		if printKeys {
			cmd.Printf("\n🔑 Generated Keys:\n")
			cmd.Printf("System Key: %s\n", cfg.Security.SystemKey)
			cmd.Printf("System API Key: %s\n", cfg.Security.SystemAPIKey)
			cmd.Printf("Client API Key: %s\n", cfg.Security.ClientAPIKey)
			cmd.Printf("\n⚠️  Store these keys securely! They are also saved in %s\n", configPath)
		}

		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  bitrec serve --data-dir=%s\n", cfg.DataDir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringP("data-dir", "d", "", "Directory to store bitrec data")
	initCmd.Flags().Bool("force", false, "Force reinitialization even if configuration already exists")
	initCmd.Flags().Bool("print-keys", false, "Print generated API keys to console")
}
