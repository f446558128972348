package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/artifact"
	"github.com/diyhub/homelabctl/internal/compose"
	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/deps"
	"github.com/diyhub/homelabctl/internal/naming"
	"github.com/diyhub/homelabctl/internal/nginx"
	"github.com/diyhub/homelabctl/internal/placement"
	"github.com/diyhub/homelabctl/internal/swarmstack"
)

func init() {
	var (
		target    string
		gitCommit bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate compose, swarm, nginx and domain artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target != "compose" && target != "swarm" && target != "all" {
				return fmt.Errorf("invalid --target %q, want compose|swarm|all", target)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// every configuration-level check runs before the first
			// artifact write: partial output is worse than none
			graph, err := deps.New(cfg.Services)
			if err != nil {
				return err
			}
			order, err := graph.ResolveOrder()
			if err != nil {
				return err
			}
			domains, err := naming.Resolve(cfg)
			if err != nil {
				return err
			}
			ts := placement.Resolve(cfg)

			writer := artifact.NewWriter(outputDir)

			if _, err := writer.Write("domains.env", domains.EnvFile()); err != nil {
				return err
			}
			if _, err := writer.Write("startup-order.txt", orderBody(cfg, order)); err != nil {
				return err
			}

			// prune only what this run regenerated: a compose-only run
			// must not touch a previously generated swarm stack
			pruned := []string{"nginx"}
			if target == "compose" || target == "all" {
				if err := generateCompose(cfg, ts, writer); err != nil {
					return err
				}
				pruned = append(pruned, "compose")
			}
			if target == "swarm" || target == "all" {
				if err := generateSwarm(cfg, writer); err != nil {
					return err
				}
				pruned = append(pruned, "swarm")
			}
			if err := generateNginx(cfg, domains, writer); err != nil {
				return err
			}
			if err := writer.Prune(pruned...); err != nil {
				return err
			}

			if gitCommit {
				if err := writer.Commit("regenerate artifacts"); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "artifacts written to %s\n", writer.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "all", "artifact target: compose|swarm|all")
	cmd.Flags().BoolVar(&gitCommit, "commit", false, "commit the artifact tree to git")
	rootCmd.AddCommand(cmd)
}

func generateCompose(cfg *config.Config, ts *placement.TargetSet, writer *artifact.Writer) error {
	scopes := append([]string{}, ts.Machines()...)
	scopes = append(scopes, compose.ScopeAll)
	for _, scope := range scopes {
		doc, err := compose.Translate(cfg, ts, scope)
		if err != nil {
			return err
		}
		name := filepath.Join("compose", scope, "docker-compose.yml")
		if _, err := writer.WriteYAML(name, doc); err != nil {
			return err
		}
	}
	return nil
}

func generateSwarm(cfg *config.Config, writer *artifact.Writer) error {
	st, err := swarmstack.Translate(cfg)
	if err != nil {
		return err
	}
	data, err := swarmstack.Marshal(st)
	if err != nil {
		return err
	}
	if err := swarmstack.Validate(data); err != nil {
		return err
	}
	_, err = writer.Write(filepath.Join("swarm", "stack.yml"), data)
	return err
}

func generateNginx(cfg *config.Config, domains naming.Domains, writer *artifact.Writer) error {
	gen := nginx.NewGenerator()
	fragments, top, err := gen.GenerateAll(cfg, domains)
	if err != nil {
		return err
	}
	for name, body := range fragments {
		if _, err := writer.Write(filepath.Join("nginx", "services", name), body); err != nil {
			return err
		}
	}
	_, err = writer.Write(filepath.Join("nginx", "homelab.conf"), top)
	return err
}

// orderBody renders the startup order, one service per line; shutdown is the
// same list read bottom-up.
func orderBody(cfg *config.Config, order []string) []byte {
	var lines []string
	for _, key := range order {
		if cfg.Services[key].Enabled {
			lines = append(lines, key)
		}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
