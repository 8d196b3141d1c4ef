// Command wanderplan serves the trip planner API and offers an offline
// package quote.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wanderplan/config"
	"wanderplan/planner"
)

const (
	Version = "0.1.0"
	appName = "wanderplan"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Trip planner API",
		Long: `Wanderplan builds day-by-day itineraries from a destination list,
fits them to a budget and quotes single-destination packages.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; production sets the environment directly
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, logLevel)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, logLevel)
		},
	})
	cmd.AddCommand(quoteCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func quoteCmd(configPath *string) *cobra.Command {
	var (
		req    planner.PackageRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "quote DESTINATION",
		Short: "Quote a package for one destination without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			req.Destination = args[0]
			pkg, err := planner.NewPackageGenerator(cfg.Packages).Build(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(pkg)
			}
			fmt.Fprintln(out, strings.Join(pkg.Summary, "\n"))
			fmt.Fprintf(out, "Estimated total: %.0f (affordable: %t)\n", pkg.Breakdown.Total, pkg.Affordable)
			for _, n := range pkg.AffordabilityNotes {
				fmt.Fprintln(out, "  * "+n)
			}
			for _, a := range pkg.Alternatives {
				fmt.Fprintln(out, "  - "+a)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Source, "from", "", "Departure city")
	f.Float64Var(&req.Budget, "budget", 0, "Total budget")
	f.IntVar(&req.Days, "days", 0, "Trip length in days")
	f.StringVar(&req.StartDate, "start", "", "Start date (YYYY-MM-DD), used when --days is not set")
	f.StringVar(&req.EndDate, "end", "", "End date (YYYY-MM-DD)")
	f.IntVar(&req.Travellers, "travellers", 1, "Number of travellers")
	f.BoolVar(&asJSON, "json", false, "Print the full package as JSON")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}
