package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lazuli-inc/takkencrawler"
	"github.com/spf13/cobra"
)

var (
	headless   bool
	variant    string
	outputPath string
	maxPages   int
)

var rootCmd = &cobra.Command{
	Use:   "takkencrawler",
	Short: "Collect the MLIT TAKKEN registry into a CSV",
	Long: `Submits the registry search, skips the pages already present in the output CSV
and appends every new company until the listing runs out.

Settings are read from .env and the environment; flags override them.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
	rootCmd.Flags().StringVar(&variant, "variant", "", "Extraction variant: listing or detail")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path of the results CSV")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Upper bound on pages visited in one run")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := takkencrawler.LoadConfig(takkencrawler.NewConfigService())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("headless") {
		cfg = cfg.WithHeadless(headless)
	}
	if flags.Changed("variant") {
		cfg.Variant = takkencrawler.Variant(variant)
	}
	if flags.Changed("output") {
		cfg.OutputPath = outputPath
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = maxPages
	}

	summary, err := takkencrawler.Run(context.Background(), cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new record(s)\n", summary.State, summary.NewRecords)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
