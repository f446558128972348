package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/config"
)

func init() {
	rootCmd.AddCommand(toggleCmd("enable", true))
	rootCmd.AddCommand(toggleCmd("disable", false))
}

// toggleCmd builds enable/disable: both are structural edits of the source
// document, applied together and saved once, atomically.
func toggleCmd(name string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <service>...",
		Short: "Set one or more services to " + name + "d in the configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			for _, key := range args {
				if err := cfg.SetEnabled(key, enabled); err != nil {
					return err
				}
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			for _, key := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %sd\n", key, name)
			}
			return nil
		},
	}
}
