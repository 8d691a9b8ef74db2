package commands

import (
	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/journal"
)

func newJournalCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the decision journal",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "journal file (default: journal_path from the config)")

	open := func() (*journal.Journal, error) {
		p := path
		if p == "" {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			p = cfg.GetJournalPath()
		}
		if p == "" {
			p = "navigation.db"
		}
		return journal.Open(p)
	}

	var limit int
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()
			sessions, err := j.Sessions(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range sessions {
				info(out, "%s  %s  %6d decisions", s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Decisions)
			}
			if len(sessions) == 0 {
				warning(out, "no sessions in %s", j.Path())
			}
			return nil
		},
	}
	sessionsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "sessions to list (0 for all)")

	var count int
	recentCmd := &cobra.Command{
		Use:   "recent SESSION_ID",
		Short: "Show the last decisions of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()
			entries, err := j.Recent(args[0], count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				commandColor(e.Command).Fprintln(out, e.String())
			}
			return nil
		},
	}
	recentCmd.Flags().IntVarP(&count, "count", "n", 20, "decisions to show (0 for all)")

	cmd.AddCommand(sessionsCmd, recentCmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newJournalCmd())
}
