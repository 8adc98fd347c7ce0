package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultServeAddr = ":8080"
	shutdownTimeout  = 5 * time.Second
)

var (
	serveDir  string
	serveAddr string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site directory over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveDir, "dir", defaultFragments, "site directory")
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	return cmd
}

func runServeCmd(_ *cobra.Command, _ []string) error {
	info, err := os.Stat(serveDir)
	if err != nil {
		return fmt.Errorf("failed to stat site directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", serveDir)
	}
	log, err := newLogger(debug, false)
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort flush.
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           newSiteRouter(serveDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("serving site", zap.String("dir", serveDir), zap.String("addr", serveAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

// newSiteRouter serves dir the way the site is hosted: extensionless paths
// resolve to their .html file.
func newSiteRouter(dir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	files := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		p := req.URL.Path
		if p != "/" && !strings.HasSuffix(p, "/") && path.Ext(p) == "" {
			candidate := filepath.Join(dir, filepath.FromSlash(path.Clean(p)+".html"))
			if _, err := os.Stat(candidate); err == nil {
				req.URL.Path = p + ".html"
			}
		}
		files.ServeHTTP(w, req)
	})
	return r
}
