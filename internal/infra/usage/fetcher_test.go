package usage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFetcher_FetchUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, oauthBeta, r.Header.Get(betaHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"five_hour": {"utilization": 42.5, "resets_at": "2026-01-02T15:00:00Z"},
			"seven_day": {"utilization": 100, "resets_at": null}
		}`))
	}))
	defer srv.Close()

	creds := writeCredentials(t, `{"claudeAiOauth":{"accessToken":"tok-123"}}`)
	snap, err := NewFetcher(srv.URL, creds).FetchUsage(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 42.5, snap.FiveHour.Percent, 0.001)
	require.NotNil(t, snap.FiveHour.ResetsAt)
	assert.True(t, snap.FiveHour.ResetsAt.Equal(time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 100, snap.SevenDay.Percent, 0.001)
	assert.Nil(t, snap.SevenDay.ResetsAt)

	window, _, ok := snap.Exhausted()
	assert.True(t, ok)
	assert.Equal(t, "seven_day", window)
}

func TestFetcher_FetchUsage_MissingWindows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	creds := writeCredentials(t, `{"claudeAiOauth":{"accessToken":"tok"}}`)
	snap, err := NewFetcher(srv.URL, creds).FetchUsage(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.FiveHour.Percent)
	assert.Zero(t, snap.SevenDay.Percent)
}

func TestFetcher_FetchUsage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := writeCredentials(t, `{"claudeAiOauth":{"accessToken":"tok"}}`)
	_, err := NewFetcher(srv.URL, creds).FetchUsage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "token expired")
}

func TestFetcher_FetchUsage_NoToken(t *testing.T) {
	creds := writeCredentials(t, `{"claudeAiOauth":{}}`)
	_, err := NewFetcher("http://127.0.0.1:0", creds).FetchUsage(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFetcher_FetchUsage_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	creds := writeCredentials(t, `{"claudeAiOauth":{"accessToken":"tok"}}`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewFetcher(srv.URL, creds).FetchUsage(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
