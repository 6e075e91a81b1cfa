package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shopfloor",
		Short: "Shopfloor - deterministic manufacturing and repair simulation",
		Long: `Shopfloor runs a deterministic manufacturing simulation: facilities with
machine slots, a quality- and tag-aware inventory ledger, a backwards
workflow planner and a tick-based job scheduler.

Examples:
  shopfloor run --scenario scenarios/workshop.yaml --hours 48
  shopfloor run --scenario scenarios/workshop.yaml --hours 48 --persist
  shopfloor plan --scenario scenarios/workshop.yaml --facility main --item gearbox --quantity 2
  shopfloor plan --scenario scenarios/workshop.yaml --facility main --item gearbox --repair`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: config.yaml in ., ./configs, /etc/shopfloor)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewPlanCommand())

	return rootCmd
}
