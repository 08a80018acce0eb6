// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the outreach-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/outreach-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretValue returns the secret for key, or "" when absent.
func secretValue(key string) string {
	return loadedSecrets[key]
}

// rootCmd is the base command for the outreach-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "outreach-engine",
	Short: "Automated researcher outreach pipeline",
	Long: `outreach-engine runs a five-stage outreach pipeline: discover recently
published papers matching configured queries, profile their authors, extract
contact addresses from affiliation text, validate and deduplicate them
against the send history, and deliver templated messages under a daily cap.

Each stage is a subcommand and exchanges data through immutable snapshots
under the data directory, so stages can run independently or on a schedule.
Use "run" for a full sequential pass and "serve" for the HTTP control
surface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./outreach-engine.yaml or ~/.config/outreach-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for snapshots and the send ledger (default: data)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("outreach-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "outreach-engine"))
		}
	}

	viper.SetEnvPrefix("OUTREACH_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
