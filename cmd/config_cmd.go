package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hpcops/slurmacc/internal/config"
	"github.com/hpcops/slurmacc/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	fmt.Printf("  Config file: %s\n", flagConfig)

	if !config.Exists(flagConfig) {
		fmt.Println("  Status: not created yet, run any report or `slurmacc setup` to create it")
		return nil
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	fmt.Println("  Status: loaded")
	fmt.Println()
	fmt.Println("  [database]")
	fmt.Printf("  user     = %s\n", cfg.Database.User)
	fmt.Printf("  password = %s\n", maskSecret(config.DatabasePassword(cfg)))
	fmt.Printf("  host     = %s\n", cfg.Database.Host)
	fmt.Printf("  name     = %s\n", cfg.Database.Name)
	fmt.Println()
	fmt.Printf("  Cache db: %s\n", store.CachePath())
	fmt.Println("  Run `slurmacc setup` to reconfigure.")
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "not configured"
	}
	return "********"
}
