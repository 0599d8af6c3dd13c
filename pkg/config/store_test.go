package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	return s
}

func TestOpenPathCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}

	if s.URL() != DefaultServiceURL {
		t.Errorf("expected default URL %q, got %q", DefaultServiceURL, s.URL())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to exist: %v", err)
	}
}

func TestSetPersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}

	if err := s.SetToken("abc123", TokenAccess); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	// A fresh store over the same file must see the write.
	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.AccessToken(); got != "abc123" {
		t.Errorf("expected persisted token %q, got %q", "abc123", got)
	}
}

func TestUnknownKeysPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	seed := map[string]any{
		"url":        "https://example.test/",
		"custom_key": "kept",
	}
	data, _ := json.Marshal(seed)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := s.Set(KeyLoginEmail, "ops@example.test"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed["custom_key"] != "kept" {
		t.Errorf("expected custom_key preserved, got %v", parsed["custom_key"])
	}
	if parsed["login_email"] != "ops@example.test" {
		t.Errorf("expected login_email written, got %v", parsed["login_email"])
	}
}

func TestStaleSentinelTreatedAsAbsent(t *testing.T) {
	s := tempStore(t)
	if err := s.SetToken("e", TokenAccess); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got := s.AccessToken(); got != "" {
		t.Errorf("expected stale sentinel normalized to empty, got %q", got)
	}
	if err := s.SetToken("e", TokenRefresh); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got := s.RefreshToken(); got != "" {
		t.Errorf("expected stale sentinel normalized to empty, got %q", got)
	}
}

func TestClearDetails(t *testing.T) {
	s := tempStore(t)
	for key, value := range map[string]string{
		KeyURL:          "https://other.example/",
		KeyAccessToken:  "acc",
		KeyRefreshToken: "ref",
		KeyLoginTime:    "2026-01-01T00:00:00Z",
		KeyUserID:       "42",
	} {
		if err := s.Set(key, value); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := s.ClearDetails(); err != nil {
		t.Fatalf("ClearDetails: %v", err)
	}

	if s.AccessToken() != "" || s.RefreshToken() != "" {
		t.Error("expected tokens cleared")
	}
	if got := s.Get(KeyUserID, ""); got != "" {
		t.Errorf("expected user id cleared, got %q", got)
	}
	if s.URL() != DefaultServiceURL {
		t.Errorf("expected URL reset to default, got %q", s.URL())
	}
}

func TestSettingsRedactsTokens(t *testing.T) {
	s := tempStore(t)
	if err := s.SetToken("secret-token", TokenAccess); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	settings := s.Settings()
	if settings[KeyAccessToken] != "<redacted>" {
		t.Errorf("expected access token redacted, got %v", settings[KeyAccessToken])
	}
	if settings[KeyURL] != DefaultServiceURL {
		t.Errorf("expected URL passed through, got %v", settings[KeyURL])
	}
}

func TestValidateURL(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	s := tempStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"healthy server", healthy.URL, true},
		{"healthy server trailing slash", healthy.URL + "/", true},
		{"unhealthy server", unhealthy.URL, false},
		{"not a URL", "::bogus::", false},
		{"wrong scheme", "ftp://example.test", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ValidateURL(ctx, tt.candidate); got != tt.want {
				t.Errorf("ValidateURL(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}
