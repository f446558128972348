package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/deploy"
	"github.com/diyhub/homelabctl/internal/placement"
	"github.com/diyhub/homelabctl/internal/runtime"
)

func init() {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "deploy [machine]...",
		Short: "Push generated artifacts to machines and apply them",
		Long: "Walks the machine list (or just the named machines), copies the\n" +
			"generated artifact bundle and applies it remotely. One machine's\n" +
			"failure never aborts the others; the summary reports each machine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			for _, m := range args {
				if _, ok := cfg.Machines[m]; !ok {
					return fmt.Errorf("unknown machine %q", m)
				}
			}
			ts := placement.Resolve(cfg)

			var remote, local runtime.Runtime
			if dryRun {
				noop := runtime.NewNoopRuntime()
				remote, local = noop, noop
			} else {
				remote = runtime.NewSSHRuntime(cfg.Machines)
				if _, ok := cfg.DriverKey(); ok {
					lr, lerr := runtime.NewLocalRuntime()
					if lerr != nil {
						log.Warn().Err(lerr).Msg("docker daemon not reachable, driving the driver machine over ssh too")
					} else {
						local = lr
					}
				}
			}

			disp := deploy.NewDispatcher(remote, local, outputDir)
			sum := disp.Deploy(cmd.Context(), cfg, ts, args)

			out := cmd.OutOrStdout()
			for _, res := range sum.Results {
				var steps []string
				for _, s := range res.Steps {
					switch s.Status {
					case deploy.StatusOK:
						steps = append(steps, string(s.Step)+":ok")
					case deploy.StatusSkipped:
						steps = append(steps, string(s.Step)+":skipped ("+s.Reason+")")
					case deploy.StatusFailed:
						steps = append(steps, string(s.Step)+":failed ("+s.Err.Error()+")")
					}
				}
				verdict := "ok"
				if res.Failed() {
					verdict = "FAILED"
				}
				fmt.Fprintf(out, "%-16s %-7s %s\n", res.Machine, verdict, strings.Join(steps, ", "))
			}

			if failed := sum.FailedMachines(); len(failed) > 0 {
				return fmt.Errorf("deployment failed on: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be executed without applying")
	rootCmd.AddCommand(cmd)
}
