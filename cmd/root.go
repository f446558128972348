package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/deps"
	"github.com/diyhub/homelabctl/internal/naming"
)

var (
	configPath string
	outputDir  string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "homelabctl",
		Short: "translate a homelab.yaml into compose, swarm, nginx and DNS artifacts",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				lvl = zerolog.InfoLevel
			}
			zerolog.SetGlobalLevel(lvl)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. Configuration errors and environment
// errors are distinguished on stderr; any failure exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		kind := "environment error"
		if isConfigError(err) {
			kind = "configuration error"
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
		os.Exit(1)
	}
}

func isConfigError(err error) bool {
	var (
		parseErr  *config.ParseError
		schemaErr *config.SchemaError
		cycleErr  *deps.CircularDependencyError
		domainErr *naming.DuplicateDomainError
		baseErr   *naming.MissingBaseDomainError
	)
	return errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrUnknownService) ||
		errors.As(err, &parseErr) ||
		errors.As(err, &schemaErr) ||
		errors.As(err, &cycleErr) ||
		errors.As(err, &domainErr) ||
		errors.As(err, &baseErr)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "homelab.yaml", "path to the homelab configuration")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "build", "directory for generated artifacts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
}
