// Package usage queries the account usage endpoint for the agent's
// five-hour and seven-day utilization windows.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

const (
	betaHeader     = "anthropic-beta"
	oauthBeta      = "oauth-2025-04-20"
	maxErrorBody   = 512
	defaultTimeout = 30 * time.Second
)

// ErrNoToken is returned when the credentials file holds no access token.
var ErrNoToken = errors.New("no oauth access token in credentials")

// Fetcher implements domain.UsageFetcher over HTTP.
// Fields are ordered to minimize memory padding.
type Fetcher struct {
	client      *http.Client
	url         string
	credentials string // Path to the agent's OAuth credentials JSON
}

// NewFetcher creates a new Fetcher.
func NewFetcher(url, credentials string) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: defaultTimeout},
		url:         url,
		credentials: credentials,
	}
}

// Ensure Fetcher implements domain.UsageFetcher interface.
var _ domain.UsageFetcher = (*Fetcher)(nil)

type credentialsFile struct {
	ClaudeAIOAuth struct {
		AccessToken string `json:"accessToken"`
	} `json:"claudeAiOauth"`
}

type usageWindow struct {
	ResetsAt    *time.Time `json:"resets_at"`
	Utilization float64    `json:"utilization"`
}

type usageResponse struct {
	FiveHour *usageWindow `json:"five_hour"`
	SevenDay *usageWindow `json:"seven_day"`
}

// FetchUsage reads the current usage windows. The token is re-read on each
// call because the agent refreshes it in place.
func (f *Fetcher) FetchUsage(ctx context.Context) (domain.UsageSnapshot, error) {
	token, err := f.token()
	if err != nil {
		return domain.UsageSnapshot{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("build usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(betaHeader, oauthBeta)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("fetch usage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.UsageSnapshot{}, fmt.Errorf("fetch usage: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("decode usage: %w", err)
	}
	return domain.UsageSnapshot{
		FiveHour: toWindow(body.FiveHour),
		SevenDay: toWindow(body.SevenDay),
	}, nil
}

func toWindow(w *usageWindow) domain.UsageWindow {
	if w == nil {
		return domain.UsageWindow{}
	}
	return domain.UsageWindow{Percent: w.Utilization, ResetsAt: w.ResetsAt}
}

func (f *Fetcher) token() (string, error) {
	data, err := os.ReadFile(f.credentials)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	if creds.ClaudeAIOAuth.AccessToken == "" {
		return "", ErrNoToken
	}
	return creds.ClaudeAIOAuth.AccessToken, nil
}
