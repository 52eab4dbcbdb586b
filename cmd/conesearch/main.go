// Package main is the entry point for the conesearch CLI binary.
package main

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astrocat/conesearch/config"
	"github.com/astrocat/conesearch/cserr"
	"github.com/astrocat/conesearch/pipeline"
	"github.com/astrocat/conesearch/schemagen"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cserr.HandleFinalError(err)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "conesearch",
		Short:         "Cone-search retrieval from a remote TAP catalog service",
		Long:          "Resolves a target sky position, runs a cone-search query against a remote astronomical catalog service, and saves the result as a FITS catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			log.SetLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSpecCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <settings.yaml>",
		Short: "Execute one retrieval run from a settings document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(args[0])
			if err != nil {
				return err
			}
			settings.SetDefaults()
			if err := settings.Validate(); err != nil {
				return err
			}

			_, err = pipeline.Run(cmd.Context(), settings)
			return err
		},
	}
}

func newSpecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Print the JSON schema of the settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema := schemagen.GenerateSchema("Cone Search Settings", config.Settings{})
			formatted, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("generating settings schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(formatted))
			return nil
		},
	}
}
