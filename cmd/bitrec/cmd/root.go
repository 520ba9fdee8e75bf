/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitrec/pkg/config"
	"github.com/ssargent/bitrec/pkg/di"
)

// container holds the dependencies commands resolve at run time.
// main injects it before Execute; tests swap in their own.
var container *di.Container

// SetContainer injects the dependency container into the cmd package.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bitrec",
	Short: "bitrec - bit-level record codec",
	Long: `bitrec encodes schema-defined records into compact bit streams with
adaptive integer widths, zero elision, diff encoding and
version-tolerant decoding, and serves them over a REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		// Built-in defaults apply until an init or up writes a file.
		cfg := config.DefaultConfig()
		if config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		}

		// Store config in command context
		cmd.SetContext(context.WithValue(cmd.Context(), "config", cfg))

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default: OS-specific location)")
}
