package cmd

import (
	"context"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hpcops/slurmacc/internal/cli"
	"github.com/hpcops/slurmacc/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse a report in an interactive viewer",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	log := newLogger()

	req, err := buildRequest(log)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Console logging would tear the alternate screen, so the report runs quiet.
	quiet := log.Level(zerolog.Disabled)

	return tui.Run(reportTitle(req), func() (cli.Table, error) {
		out, err := computeReport(context.Background(), req, cfg, quiet)
		if err != nil {
			return cli.Table{}, err
		}
		return out.view, nil
	})
}
