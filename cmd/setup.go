package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hpcops/slurmacc/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the user-administration database connection",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database user").
				Value(&cfg.Database.User),
			huh.NewInput().
				Title("Database password").
				Description("Stored in the config file; set SLURMACC_DB_PASSWORD to avoid that.").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Database.Password),
			huh.NewInput().
				Title("Database host").
				Value(&cfg.Database.Host),
			huh.NewInput().
				Title("Database name").
				Value(&cfg.Database.Name),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if err := config.Save(flagConfig, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("  Saved to %s\n", flagConfig)
	fmt.Println("  Run `slurmacc setup` anytime to reconfigure.")
	return nil
}
