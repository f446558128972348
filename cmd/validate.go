package cmd

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/deps"
	"github.com/diyhub/homelabctl/internal/naming"
	"github.com/diyhub/homelabctl/internal/placement"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and report every problem found",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// schema passed; gather the cross-service checks in one go
			var merr *multierror.Error
			graph, err := deps.New(cfg.Services)
			if err != nil {
				merr = multierror.Append(merr, err)
			} else if cerr := graph.DetectCycle(); cerr != nil {
				merr = multierror.Append(merr, cerr)
			}
			if _, err := naming.Resolve(cfg); err != nil {
				merr = multierror.Append(merr, err)
			}
			if err := merr.ErrorOrNil(); err != nil {
				return err
			}

			ts := placement.Resolve(cfg)
			for _, w := range ts.Warnings() {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s OK: %d services, %d machines\n",
				cfg.Path(), len(cfg.Services), len(cfg.Machines))
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
