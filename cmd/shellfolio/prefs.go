package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/prefs"
	"github.com/verte-zerg/shellfolio/internal/report"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change stored preferences",
		Args:  cobra.NoArgs,
		RunE:  runPrefsGetCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Show preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPrefsGetCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE:  runPrefsSetCmd,
	})
	return cmd
}

func runPrefsGetCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	log, err := newLogger(debug, false)
	if err != nil {
		return err
	}
	preferences := prefs.New(st, log)
	ctx := context.Background()

	lines := report.Preferences(preferences.All(ctx))
	if len(args) == 1 {
		key, err := parsePrefKey(args[0])
		if err != nil {
			return err
		}
		lines = []string{preferences.Get(ctx, key)}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runPrefsSetCmd(_ *cobra.Command, args []string) error {
	key, err := parsePrefKey(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	log, err := newLogger(debug, false)
	if err != nil {
		return err
	}
	return prefs.New(st, log).Set(context.Background(), key, strings.TrimSpace(args[1]))
}

func parsePrefKey(raw string) (model.PrefKey, error) {
	key := model.PrefKey(strings.ToLower(strings.TrimSpace(raw)))
	if model.AllowedValues(key) == nil {
		names := make([]string, len(model.PrefKeys))
		for i, k := range model.PrefKeys {
			names[i] = string(k)
		}
		return "", fmt.Errorf("unknown preference %q (available: %s)", raw, strings.Join(names, ", "))
	}
	return key, nil
}
