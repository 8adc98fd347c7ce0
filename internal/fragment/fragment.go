// Package fragment fetches page fragments from a site root over HTTP or from disk.
package fragment

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxFragmentBytes = 4 << 20

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Path, e.Code)
}

// Fetcher retrieves fragments under a root. Fetches are never retried.
type Fetcher struct {
	root    string
	fsys    fs.FS
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// New returns a fetcher for root, which is either an http(s) URL or a directory.
func New(root string, timeout time.Duration, log *zap.Logger) (*Fetcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("fragment root is empty")
	}
	f := &Fetcher{root: strings.TrimRight(root, "/"), log: log}
	if isRemote(root) {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		f.client = &http.Client{Timeout: timeout}
		f.limiter = rate.NewLimiter(rate.Limit(20), 10)
		return f, nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat fragment root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fragment root %s is not a directory", root)
	}
	f.fsys = os.DirFS(root)
	return f, nil
}

func isRemote(root string) bool {
	return strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://")
}

// ComponentPath returns the site path of a named component fragment.
func ComponentPath(name string) string {
	return "/components/" + name + ".html"
}

// PagePath returns the site path of the page shell served for rawURL:
// directories map to their index.html and extensionless paths gain .html.
func PagePath(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return path.Join("/", p, "index.html")
	}
	if path.Ext(p) == "" {
		p += ".html"
	}
	return path.Clean("/" + p)
}

// Fetch returns the markup of the named component.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	return f.FetchPath(ctx, ComponentPath(name))
}

// FetchPath returns the markup at a site-relative path.
func (f *Fetcher) FetchPath(ctx context.Context, p string) (string, error) {
	start := time.Now()
	var (
		body string
		err  error
	)
	if f.client != nil {
		body, err = f.fetchRemote(ctx, p)
	} else {
		body, err = f.fetchLocal(ctx, p)
	}
	if err != nil {
		return "", err
	}
	f.log.Debug("fetched fragment",
		zap.String("path", p),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))
	return body, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, p string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.root+"/"+strings.TrimLeft(p, "/"), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Path: p, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

func (f *Fetcher) fetchLocal(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	return string(data), nil
}
