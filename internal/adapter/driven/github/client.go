// Package github mirrors diary backups into a GitHub repository through the
// contents API, using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// backupDir is the repository folder the text backups are committed to.
const backupDir = "diary"

// Compile-time interface satisfaction check.
var _ driven.BackupSink = (*BackupSink)(nil)

// BackupSink commits each saved entry as diary/Diary_<date>.txt.
type BackupSink struct {
	gh     *gh.Client
	owner  string
	repo   string
	branch string // Empty means the repository's default branch.
}

// NewBackupSink creates a sink with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewBackupSink(token, repoFullName, branch string) (*BackupSink, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &BackupSink{gh: client, owner: owner, repo: repo, branch: branch}, nil
}

// NewBackupSinkWithHTTPClient creates a sink with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewBackupSinkWithHTTPClient(httpClient *http.Client, baseURL, repoFullName, branch string) (*BackupSink, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(httpClient)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &BackupSink{gh: client, owner: owner, repo: repo, branch: branch}, nil
}

func (s *BackupSink) Name() string { return "github" }

// Verify checks that the token can see the target repository. It is called
// once at startup so a misconfigured mirror is reported early.
func (s *BackupSink) Verify(ctx context.Context) error {
	_, resp, err := s.gh.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		return fmt.Errorf("verifying backup repo %s/%s: %w", s.owner, s.repo, err)
	}
	logRateLimit(resp, s.owner+"/"+s.repo)
	return nil
}

// Backup creates the file, or updates it in place when it already exists.
func (s *BackupSink) Backup(ctx context.Context, entry model.DiaryEntry) error {
	filePath := path.Join(backupDir, model.BackupFileName(entry.Date))

	sha, err := s.currentSHA(ctx, filePath)
	if err != nil {
		return err
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(fmt.Sprintf("diary: %s", entry.Date)),
		Content: model.BackupText(entry),
	}
	if s.branch != "" {
		opts.Branch = gh.Ptr(s.branch)
	}

	var resp *gh.Response
	if sha == "" {
		_, resp, err = s.gh.Repositories.CreateFile(ctx, s.owner, s.repo, filePath, opts)
	} else {
		opts.SHA = gh.Ptr(sha)
		_, resp, err = s.gh.Repositories.UpdateFile(ctx, s.owner, s.repo, filePath, opts)
	}
	if err != nil {
		return fmt.Errorf("committing %s to %s/%s: %w", filePath, s.owner, s.repo, err)
	}

	logRateLimit(resp, filePath)
	return nil
}

// currentSHA returns the blob SHA of filePath, or "" if it does not exist yet.
func (s *BackupSink) currentSHA(ctx context.Context, filePath string) (string, error) {
	var opts *gh.RepositoryContentGetOptions
	if s.branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: s.branch}
	}

	file, _, resp, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, filePath, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("fetching %s from %s/%s: %w", filePath, s.owner, s.repo, err)
	}
	return file.GetSHA(), nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
