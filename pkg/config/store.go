// Package config implements the persisted configuration store: a flat JSON
// mapping under the user's config directory holding the service URL and
// authentication state. Every write is immediately persisted. The login
// password never touches the file; it lives in the OS keyring.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pterm/pterm"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// DefaultServiceURL is written on first start and restored on logout.
const DefaultServiceURL = "https://api.agentcore.ai/"

// healthEndpoint is probed by ValidateURL.
const healthEndpoint = "api/health/"

// Recognized keys. Unrecognized keys found in the file are preserved.
const (
	KeyURL          = "url"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyLoginEmail   = "login_email"
	KeyLoginTime    = "login_time"
	KeyUserID       = "user_id"
)

// TokenKind selects which token SetToken writes.
type TokenKind string

const (
	// TokenAccess is the short-lived bearer token.
	TokenAccess TokenKind = "access"
	// TokenRefresh is the long-lived exchange token.
	TokenRefresh TokenKind = "refresh"
)

// keyringService namespaces credentials in the OS keychain.
const keyringService = "agentcore-cli"

// staleSentinel is a historical artifact: some deployments wrote the literal
// "e" where an empty token was meant. Treated as absent, with a warning.
const staleSentinel = "e"

// Store is the write-through configuration store.
type Store struct {
	path   string
	values map[string]any
	warned bool
}

// Open loads the store from the default location, creating the file with
// defaults if it does not exist yet.
func Open() (*Store, error) {
	return OpenPath(filepath.Join(xdg.ConfigHome, "agentcore", "config.json"))
}

// OpenPath loads the store from an explicit path. Testing hook.
func OpenPath(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]any{}}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.values[KeyURL] = DefaultServiceURL
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	s.values = v.AllSettings()
	if _, ok := s.values[KeyURL]; !ok {
		s.values[KeyURL] = DefaultServiceURL
	}
	return s, nil
}

// Path returns the config file location.
func (s *Store) Path() string { return s.path }

// Get returns the string value for a key, or def when absent.
func (s *Store) Get(key, def string) string {
	value, ok := s.values[key]
	if !ok || value == nil {
		return def
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return str
}

// Settings returns a copy of the stored values with token material
// redacted. Used by the config inspection commands.
func (s *Store) Settings() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if k == KeyAccessToken || k == KeyRefreshToken {
			if str, ok := v.(string); ok && str != "" {
				out[k] = "<redacted>"
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Set stores a value and persists the file immediately.
func (s *Store) Set(key, value string) error {
	s.values[key] = value
	return s.flush()
}

// Unset removes a key and persists the file immediately.
func (s *Store) Unset(key string) error {
	delete(s.values, key)
	return s.flush()
}

// URL returns the service base URL.
func (s *Store) URL() string {
	return s.Get(KeyURL, DefaultServiceURL)
}

// AccessToken returns the access token, normalizing absent values.
func (s *Store) AccessToken() string {
	return s.normalizeToken(s.Get(KeyAccessToken, ""))
}

// RefreshToken returns the refresh token, normalizing absent values.
func (s *Store) RefreshToken() string {
	return s.normalizeToken(s.Get(KeyRefreshToken, ""))
}

// SetToken writes the access or refresh token.
func (s *Store) SetToken(value string, kind TokenKind) error {
	switch kind {
	case TokenAccess:
		return s.Set(KeyAccessToken, value)
	case TokenRefresh:
		return s.Set(KeyRefreshToken, value)
	default:
		return fmt.Errorf("unknown token kind %q", kind)
	}
}

// SetPassword stores the login password in the OS keyring, keyed by email.
func (s *Store) SetPassword(email, password string) error {
	if err := keyring.Set(keyringService, email, password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}
	return nil
}

// Password retrieves the login password for an email from the OS keyring.
func (s *Store) Password(email string) (string, error) {
	password, err := keyring.Get(keyringService, email)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return password, nil
}

// ValidateURL probes the candidate's health endpoint. True iff it answers 200.
func (s *Store) ValidateURL(ctx context.Context, candidate string) bool {
	parsed, err := url.Parse(candidate)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return false
	}

	probe := candidate
	if probe[len(probe)-1] != '/' {
		probe += "/"
	}
	probe += healthEndpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe, nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ClearDetails resets authentication state: tokens, email, user id, and
// login time go away, the URL reverts to the default, and the keyring entry
// is removed. Called on logout.
func (s *Store) ClearDetails() error {
	if email := s.Get(KeyLoginEmail, ""); email != "" {
		// Best effort: the keyring may be unavailable on headless hosts.
		_ = keyring.Delete(keyringService, email)
	}
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyLoginEmail, KeyLoginTime, KeyUserID} {
		delete(s.values, key)
	}
	s.values[KeyURL] = DefaultServiceURL
	return s.flush()
}

func (s *Store) normalizeToken(token string) string {
	if token == "" {
		return ""
	}
	if token == staleSentinel {
		if !s.warned {
			pterm.Warning.Printfln("Ignoring stale token sentinel %q in %s", staleSentinel, s.path)
			s.warned = true
		}
		return ""
	}
	return token
}

// flush writes the store to disk, pretty-printed, with an atomic rename.
func (s *Store) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
