package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/shellfolio/internal/config"
	"github.com/verte-zerg/shellfolio/internal/loader"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# shellfolio configuration
# Uncomment a value to enable it. CLI flags override config values.

[load]
# origin = "https://example.com"  # Site origin for same-origin referrer checks
# fragments = %q                   # Site root: directory or http(s) URL
# base-path = ""                   # Path prefix stripped from locations
# site-name = %q                   # Name shown in the banner and breadcrumb
# version = %q                     # Version shown in the banner
# repo = "owner/name"              # GitHub repository for the banner commit
# min-visible = %q                 # Loads faster than this hold the load screen
# hold = %q                        # How long a fast load keeps the load screen
# fragment-timeout = %q            # Timeout per fragment fetch
# settle-timeout = %q              # Longest wait for the console to settle
# history-window = %d              # History lines shown by the console (0 for all)
# session-ttl = %q                 # Drop sessions idle for longer than this
`,
		defaultFragments,
		defaultSiteName,
		defaultVersion,
		loader.DefaultMinVisible.String(),
		loader.DefaultHold.String(),
		loader.DefaultFragmentTimeout.String(),
		loader.DefaultSettleTimeout.String(),
		defaultHistoryWindow,
		defaultSessionTTL.String(),
	)
}
