package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goalrunner/internal/config"
	"goalrunner/internal/credentials"
	"goalrunner/internal/journal"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Store an API key and pick the default provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr := credentials.NewManager(config.GetConfigDir())
			creds, err := credentials.Onboard(mgr, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			if err := config.EnsureDefaultConfig(creds.DefaultProvider); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Config:", config.ConfigPath())
			return nil
		},
	}
}

func newRunsCmd(v *viper.Viper, configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent goal runs from the journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(v, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			j, err := journal.Open(cmd.Context(), a.cfg.JournalPath)
			if err != nil {
				return err
			}
			defer j.Close()
			runs, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-36s  %-19s  %-8s  %5s  %s", "RUN", "STARTED", "RESULT", "STEPS", "GOAL")))
			for _, r := range runs {
				fmt.Fprintf(out, "%-36s  %-19s  %-8s  %5d  %s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), runStatus(r), r.Steps, truncate(r.Goal, 60))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func runStatus(r journal.Run) string {
	switch {
	case r.FinishedAt == nil:
		return "running"
	case r.Achieved:
		return okStyle.Render("achieved")
	default:
		return failStyle.Render("failed")
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func newCapabilitiesCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities available to plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(v, *configPath)
			if err != nil {
				return err
			}
			defer a.close()
			fmt.Fprintln(cmd.OutOrStdout(), a.registry().Describe())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goalrunner version %s\n", Version)
		},
	}
}
