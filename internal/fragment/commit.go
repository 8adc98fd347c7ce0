package fragment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GitHubAPI is the default API root for LatestCommit.
const GitHubAPI = "https://api.github.com"

// ErrNoCommits is returned when the repository has no commits.
var ErrNoCommits = errors.New("no commits found")

type commitResponse []struct {
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}

// LatestCommit returns the first line of the newest commit message of repo (owner/name).
func LatestCommit(ctx context.Context, apiRoot, repo string) (string, error) {
	if strings.TrimSpace(repo) == "" {
		return "", fmt.Errorf("repository is empty")
	}
	if apiRoot == "" {
		apiRoot = GitHubAPI
	}
	url := fmt.Sprintf("%s/repos/%s/commits?per_page=1", strings.TrimRight(apiRoot, "/"), repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Path: url, Code: resp.StatusCode}
	}
	var payload commitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode commits: %w", err)
	}
	if len(payload) == 0 {
		return "", ErrNoCommits
	}
	message, _, _ := strings.Cut(payload[0].Commit.Message, "\n")
	return strings.TrimSpace(message), nil
}
