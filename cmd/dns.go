package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/dns"
	"github.com/diyhub/homelabctl/internal/naming"
)

func init() {
	dnsCmd := &cobra.Command{
		Use:   "dns",
		Short: "Plan and apply zone records for machines and services",
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the records the current configuration needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := plannedRecords()
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	var (
		apiURL   string
		apiToken string
		dryRun   bool
	)
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Create missing records against the DNS server",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := plannedRecords()
			if err != nil {
				return err
			}
			if apiURL == "" {
				apiURL = os.Getenv("HOMELAB_DNS_API")
			}
			if apiURL == "" {
				return fmt.Errorf("no DNS API endpoint: pass --api or set HOMELAB_DNS_API")
			}
			if apiToken == "" {
				apiToken = os.Getenv("HOMELAB_DNS_TOKEN")
			}

			cli := dns.NewHTTPZoneClient(apiURL, apiToken)
			res, err := dns.Sync(cmd.Context(), cli, records, dryRun)
			fmt.Fprintf(cmd.OutOrStdout(), "created:%d present:%d failed:%d\n",
				len(res.Created), len(res.Skipped), len(res.Failed))
			return err
		},
	}
	syncCmd.Flags().StringVar(&apiURL, "api", "", "DNS server REST endpoint")
	syncCmd.Flags().StringVar(&apiToken, "token", "", "DNS API bearer token")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan only, create nothing")

	dnsCmd.AddCommand(planCmd, syncCmd)
	rootCmd.AddCommand(dnsCmd)
}

func plannedRecords() ([]dns.Record, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	domains, err := naming.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return dns.Plan(cfg, domains)
}
