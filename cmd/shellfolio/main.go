// Package main provides the CLI entrypoint for shellfolio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/shellfolio/internal/config"
	"github.com/verte-zerg/shellfolio/internal/console"
	"github.com/verte-zerg/shellfolio/internal/fragment"
	"github.com/verte-zerg/shellfolio/internal/loader"
	"github.com/verte-zerg/shellfolio/internal/model"
	"github.com/verte-zerg/shellfolio/internal/navigation"
	"github.com/verte-zerg/shellfolio/internal/page"
	"github.com/verte-zerg/shellfolio/internal/prefs"
	"github.com/verte-zerg/shellfolio/internal/reveal"
	"github.com/verte-zerg/shellfolio/internal/store"
	"github.com/verte-zerg/shellfolio/internal/tui"
)

const (
	defaultURL           = "/"
	defaultNavType       = model.TimingNavigate
	defaultFragments     = "."
	defaultSiteName      = "Portfolio"
	defaultVersion       = "1.0"
	defaultHistoryWindow = 8
	defaultSessionTTL    = 24 * time.Hour
	defaultWidth         = 80
)

var (
	loadURL             string
	loadNavType         string
	loadReferrer        string
	loadSession         string
	loadFragments       string
	loadOrigin          string
	loadBasePath        string
	loadSiteName        string
	loadVersion         string
	loadRepo            string
	loadOut             string
	loadNoTUI           bool
	loadMinVisible      time.Duration
	loadHold            time.Duration
	loadFragmentTimeout time.Duration
	loadSettleTimeout   time.Duration
	loadHistoryWindow   int
	loadSessionTTL      time.Duration

	debug bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shellfolio",
		Short:         "Load a portfolio page behind a terminal loading console",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			config.LoadEnv()
		},
		RunE: runLoadCmd,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	flags := rootCmd.Flags()
	flags.StringVar(&loadURL, "url", defaultURL, "location being loaded")
	flags.StringVar(&loadNavType, "nav-type", defaultNavType, "navigation timing type (navigate, reload, back_forward)")
	flags.StringVar(&loadReferrer, "referrer", "", "referring URL")
	flags.StringVar(&loadSession, "session", "", "session id (default: $"+config.SessionEnv+" or the parent process)")
	flags.StringVar(&loadFragments, "fragments", defaultFragments, "site root: directory or http(s) URL")
	flags.StringVar(&loadOrigin, "origin", "", "site origin for same-origin checks (default: origin of --url)")
	flags.StringVar(&loadBasePath, "base-path", "", "path prefix stripped from locations")
	flags.StringVar(&loadSiteName, "site-name", defaultSiteName, "site name shown in the banner and breadcrumb")
	flags.StringVar(&loadVersion, "version", defaultVersion, "site version shown in the banner")
	flags.StringVar(&loadRepo, "repo", "", "GitHub repository (owner/name) for the banner commit message")
	flags.StringVar(&loadOut, "out", "", "write the assembled page HTML to this file (- for stdout)")
	flags.BoolVar(&loadNoTUI, "no-tui", false, "skip the load screen")
	flags.DurationVar(&loadMinVisible, "min-visible", loader.DefaultMinVisible, "loads faster than this hold the load screen")
	flags.DurationVar(&loadHold, "hold", loader.DefaultHold, "how long a fast load keeps the load screen")
	flags.DurationVar(&loadFragmentTimeout, "fragment-timeout", loader.DefaultFragmentTimeout, "timeout per fragment fetch")
	flags.DurationVar(&loadSettleTimeout, "settle-timeout", loader.DefaultSettleTimeout, "longest wait for the console to settle")
	flags.IntVar(&loadHistoryWindow, "history-window", defaultHistoryWindow, "history lines shown by the console (0 for all)")
	flags.DurationVar(&loadSessionTTL, "session-ttl", defaultSessionTTL, "drop sessions idle for longer than this (0 keeps all)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runLoadCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveLoadConfig(cmd, fileCfg.Load)
	if err != nil {
		return err
	}
	if err := validateLoadConfig(cfg); err != nil {
		return err
	}

	interactive := !loadNoTUI && term.IsTerminal(int(os.Stdout.Fd()))
	log, err := newLogger(debug, interactive)
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort flush.
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if removed, err := st.PruneSessions(ctx, cfg.SessionTTL); err != nil {
		log.Warn("failed to prune sessions", zap.Error(err))
	} else if removed > 0 {
		log.Debug("pruned stale sessions", zap.Int64("entries", removed))
	}

	fetcher, err := fragment.New(cfg.Fragments, cfg.FragmentTimeout, log)
	if err != nil {
		return err
	}
	shellPath := fragment.PagePath(loadURL)
	markup, err := fetcher.FetchPath(ctx, shellPath)
	if err != nil {
		return fmt.Errorf("failed to fetch page %s: %w", shellPath, err)
	}
	doc, err := page.Parse(markup)
	if err != nil {
		return err
	}

	preferences := prefs.New(st, log)
	tracker := navigation.NewTracker(st, cfg.Session,
		navigation.Options{Origin: cfg.Origin, BasePath: cfg.BasePath}, log)
	visit := model.Visit{URL: loadURL, TimingType: loadNavType, Referrer: loadReferrer}
	opts := loader.Options{Config: cfg, Log: log}

	if interactive {
		buf := console.NewBuffer()
		opts.Timing = console.DefaultTiming()
		opts.Banner = console.NewBanner(cfg.SiteName, cfg.Version, commitFunc(cfg.Repo), log)
		opts.Screen = buf
		ld := loader.New(tracker, preferences, fetcher, opts)
		m := tui.NewModel(tui.Options{
			Screen: buf,
			Theme:  preferences.Get(ctx, model.PrefTheme),
			Log:    log,
			Load: func(ctx context.Context) tui.Loaded {
				res, err := ld.Run(ctx, doc, visit)
				return loadedFrom(doc, cfg.SiteName, res, err)
			},
		})
		program := tea.NewProgram(m, tea.WithAltScreen())
		_, err := program.Run()
		m.Close()
		if err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		if res, ok := m.Result(); ok && res.Err == nil && loadOut != "" {
			return writeHTML(cmd, doc, loadOut)
		}
		return nil
	}

	ld := loader.New(tracker, preferences, fetcher, opts)
	res, err := ld.Run(ctx, doc, visit)
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		logErrf("failed to load %s: %v\n", f.Fragment, f.Err)
	}
	if loadOut != "" {
		return writeHTML(cmd, doc, loadOut)
	}
	return printPage(cmd, doc, res)
}

func loadedFrom(doc *page.Document, siteName string, res loader.Result, err error) tui.Loaded {
	out := tui.Loaded{
		Status: tui.Status{
			Entry:    res.Current,
			SiteName: siteName,
			Class:    res.Class,
			Failures: len(res.Failures),
			Elapsed:  res.Elapsed,
		},
		Theme: res.Preferences.Theme,
		Err:   err,
	}
	if err != nil {
		return out
	}
	md, err := reveal.PageMarkdown(doc)
	if err != nil {
		out.Err = err
		return out
	}
	out.Markdown = md
	return out
}

func printPage(cmd *cobra.Command, doc *page.Document, res loader.Result) error {
	md, err := reveal.PageMarkdown(doc)
	if err != nil {
		return err
	}
	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	out, err := reveal.Render(md, res.Preferences.Theme, width)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "%s  (%s, %dms)\n", page.BreadcrumbText(res.Current, loadSiteName), res.Class, res.Elapsed.Milliseconds()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeHTML(cmd *cobra.Command, doc *page.Document, path string) error {
	markup, err := doc.HTML()
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	if path == "-" {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), markup); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func commitFunc(repo string) console.CommitFunc {
	if strings.TrimSpace(repo) == "" {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		msg, err := fragment.LatestCommit(ctx, fragment.GitHubAPI, repo)
		if errors.Is(err, fragment.ErrNoCommits) {
			return "", console.ErrNoCommit
		}
		return msg, err
	}
}

func resolveLoadConfig(cmd *cobra.Command, file config.LoadSection) (model.LoadConfig, error) {
	applyStringConfig(cmd, "origin", &loadOrigin, file.Origin)
	applyStringConfig(cmd, "fragments", &loadFragments, file.Fragments)
	applyStringConfig(cmd, "base-path", &loadBasePath, file.BasePath)
	applyStringConfig(cmd, "site-name", &loadSiteName, file.SiteName)
	applyStringConfig(cmd, "version", &loadVersion, file.Version)
	applyStringConfig(cmd, "repo", &loadRepo, file.Repo)
	applyIntConfig(cmd, "history-window", &loadHistoryWindow, file.HistoryWindow)
	durations := []struct {
		name   string
		target *time.Duration
		value  *string
	}{
		{"min-visible", &loadMinVisible, file.MinVisible},
		{"hold", &loadHold, file.Hold},
		{"fragment-timeout", &loadFragmentTimeout, file.FragmentTimeout},
		{"settle-timeout", &loadSettleTimeout, file.SettleTimeout},
		{"session-ttl", &loadSessionTTL, file.SessionTTL},
	}
	for _, d := range durations {
		if err := applyDurationConfig(cmd, d.name, d.target, d.value); err != nil {
			return model.LoadConfig{}, err
		}
	}

	session := strings.TrimSpace(loadSession)
	if session == "" {
		session = config.DefaultSession()
	}
	return model.LoadConfig{
		Origin:          loadOrigin,
		Fragments:       loadFragments,
		BasePath:        loadBasePath,
		SiteName:        loadSiteName,
		Version:         loadVersion,
		Repo:            loadRepo,
		Session:         session,
		MinVisible:      loadMinVisible,
		Hold:            loadHold,
		FragmentTimeout: loadFragmentTimeout,
		SettleTimeout:   loadSettleTimeout,
		HistoryWindow:   loadHistoryWindow,
		SessionTTL:      loadSessionTTL,
	}, nil
}

func validateLoadConfig(cfg model.LoadConfig) error {
	if strings.TrimSpace(cfg.Fragments) == "" {
		return fmt.Errorf("--fragments must not be empty")
	}
	if cfg.MinVisible <= 0 {
		return fmt.Errorf("--min-visible must be > 0")
	}
	if cfg.Hold <= 0 {
		return fmt.Errorf("--hold must be > 0")
	}
	if cfg.FragmentTimeout <= 0 {
		return fmt.Errorf("--fragment-timeout must be > 0")
	}
	if cfg.SettleTimeout <= 0 {
		return fmt.Errorf("--settle-timeout must be > 0")
	}
	if cfg.HistoryWindow < 0 {
		return fmt.Errorf("--history-window must be >= 0")
	}
	if cfg.SessionTTL < 0 {
		return fmt.Errorf("--session-ttl must be >= 0")
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil || cmd.Flags().Changed(name) {
		return nil
	}
	d, err := config.Duration(name, value)
	if err != nil {
		return err
	}
	*target = *d
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
