package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/naming"
	"github.com/diyhub/homelabctl/internal/placement"
	"github.com/diyhub/homelabctl/internal/runtime"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show services, their targets and running state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			domains, err := naming.Resolve(cfg)
			if err != nil {
				return err
			}
			ts := placement.Resolve(cfg)

			// best effort: a missing daemon only means no running column
			var running []string
			if local, lerr := runtime.NewLocalRuntime(); lerr == nil {
				if names, rerr := local.RunningContainers(cmd.Context()); rerr == nil {
					running = names
				} else {
					log.Debug().Err(rerr).Msg("docker daemon not reachable")
				}
			}
			joined := strings.Join(running, " ")

			byService := map[string][]string{}
			for _, m := range ts.Machines() {
				for _, s := range ts.ServicesOn(m) {
					byService[s] = append(byService[s], m)
				}
			}

			out := cmd.OutOrStdout()
			for _, key := range cfg.ServiceKeys() {
				svc := cfg.Services[key]
				state := "disabled"
				if svc.Enabled {
					state = "enabled"
					if len(running) > 0 {
						if strings.Contains(joined, key) {
							state = "running"
						} else {
							state = "stopped"
						}
					}
				}
				machines := byService[key]
				sort.Strings(machines)
				fqdn := "-"
				if m, ok := domains.Lookup(key); ok {
					fqdn = m.FQDN
				}
				category := svc.Category
				if category == "" {
					category = "-"
				}
				fmt.Fprintf(out, "%-24s %-10s %-12s %-24s %s\n",
					key, state, category, fqdn, strings.Join(machines, ","))
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
