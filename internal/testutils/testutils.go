package testutils

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nfrund/patientdesk/internal/config"
	"github.com/spf13/afero"
)

// ConfigForTests returns a valid development config pointing at backendURL.
// Extra environment-style overrides are applied on top.
func ConfigForTests(t *testing.T, backendURL string, overrides map[string]string) *config.Config {
	t.Helper()

	vars := map[string]string{
		"BACKEND_URL":    backendURL,
		"SESSION_SECRET": "test-secret",
		"TOKEN_TIMEOUT":  "2s",
		// High enough that rate limiting never trips in tests.
		"RATE_LIMIT": "1000",
	}
	for k, v := range overrides {
		vars[k] = v
	}

	cfg, err := config.Load(afero.NewMemMapFs(), "", func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("failed to build test config: %v", err)
	}
	return cfg
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
