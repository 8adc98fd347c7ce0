package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shellfolio/internal/config"
	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/report"
)

var (
	historySession string
	historyClear   bool
	historyAll     bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the navigation history of a session",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySession, "session", "", "session id (default: $"+config.SessionEnv+" or the parent process)")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "end the session and drop its history")
	cmd.Flags().BoolVar(&historyAll, "all", false, "list every stored session")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	session := strings.TrimSpace(historySession)
	if session == "" {
		session = config.DefaultSession()
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()

	if historyClear {
		if err := st.ClearSession(ctx, session); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		logErrf("Cleared session %s\n", session)
		return nil
	}

	var lines []string
	if historyAll {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(sessions) == 0 {
			logErrf("No sessions stored.\n")
			return nil
		}
		lines = report.Sessions(sessions, session, time.Now())
	} else {
		entries, err := st.LoadHistory(ctx, session)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(entries) == 0 {
			logErrf("No history for session %s.\n", session)
			return nil
		}
		history := make(model.History, len(entries))
		for i, e := range entries {
			history[i] = model.Entry(e)
		}
		lines = report.History(history)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
