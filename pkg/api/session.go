// Package api implements the HTTP session layer shared by every command:
// request construction, bearer authentication, transport-level retry, JSON
// response post-processing, and the error taxonomy.
//
// One Session exists per process. Its Authorization header always tracks the
// access token most recently persisted to the config store; the token
// coordinator owns both and updates them as a pair.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the process-wide per-request timeout.
const DefaultTimeout = 300 * time.Second

// UserAgent is sent on every request.
const UserAgent = "agentcore-cli"

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
)

// retryStatuses are retried at the transport layer with fixed backoff.
// Orthogonal to the operation-level refresh retry: these handle congestion,
// the operation layer handles mid-call token expiry.
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// 401 detail strings from the backend's token authentication layer.
// Credential rejections are terminal; stale-token details trigger a refresh.
var (
	terminalAuthDetails = map[string]bool{
		"Invalid credentials": true,
		"No active account found with the given credentials": true,
	}
	refreshAuthDetails = map[string]bool{
		"Given token not valid for any token type":      true,
		"Authentication credentials were not provided.": true,
	}
)

// Refresher exchanges the stored refresh token for a new access token.
// Implemented by auth.Coordinator; an interface here to keep the dependency
// pointing from auth to api.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ResponseHook is the single extension point for response post-processing.
// It runs before status checking; a non-nil error aborts the call.
type ResponseHook func(resp *http.Response, body []byte) error

// FilePart is one file field of a multipart upload.
type FilePart struct {
	Field   string
	Name    string
	Content io.Reader
}

// RequestOptions carries the optional parts of one request.
type RequestOptions struct {
	// Body is JSON-encoded, or sent as form fields when Files are present.
	Body map[string]any
	// Query parameters appended to the URL.
	Query url.Values
	// Files switches the request to multipart/form-data.
	Files []FilePart
	// Timeout overrides the session default for this call.
	Timeout time.Duration
	// Stream, when set, receives the raw response body instead of JSON
	// decoding. The returned mapping is empty.
	Stream io.Writer
	// NoRefresh disables the 401 refresh routing. Used by the token
	// coordinator itself so a rejected refresh cannot recurse.
	NoRefresh bool
}

// Session is the shared HTTP transport.
type Session struct {
	baseURL        string
	client         *http.Client
	defaultHeaders map[string]string
	token          string
	refresher      Refresher
	hook           ResponseHook

	maxAttempts int
	backoff     time.Duration
	sleep       func(time.Duration)
}

// NewSession creates a session for the given base URL.
func NewSession(baseURL string) *Session {
	return &Session{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		defaultHeaders: map[string]string{
			"Content-Type": "application/json",
			"User-Agent":   UserAgent,
		},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		sleep:       time.Sleep,
	}
}

// SetBaseURL points the session at a different service.
func (s *Session) SetBaseURL(baseURL string) { s.baseURL = baseURL }

// BaseURL returns the current service base URL.
func (s *Session) BaseURL() string { return s.baseURL }

// SetToken sets or clears the bearer token for subsequent requests.
func (s *Session) SetToken(token string) { s.token = token }

// Token returns the current bearer token.
func (s *Session) Token() string { return s.token }

// SetRefresher installs the token coordinator consulted on stale-token 401s.
func (s *Session) SetRefresher(r Refresher) { s.refresher = r }

// SetHook installs the response post-processing hook.
func (s *Session) SetHook(h ResponseHook) { s.hook = h }

// SetHTTPClient replaces the underlying client. Testing hook.
func (s *Session) SetHTTPClient(c *http.Client) { s.client = c }

// SetRetry tunes the transport retry policy. Testing hook.
func (s *Session) SetRetry(maxAttempts int, backoff time.Duration, sleep func(time.Duration)) {
	s.maxAttempts = maxAttempts
	s.backoff = backoff
	if sleep != nil {
		s.sleep = sleep
	}
}

// DefaultHeader returns the session-level default for a header.
func (s *Session) DefaultHeader(name string) string { return s.defaultHeaders[name] }

// SetDefaultHeader sets a session-level default header.
func (s *Session) SetDefaultHeader(name, value string) { s.defaultHeaders[name] = value }

// Get issues a GET request.
func (s *Session) Get(ctx context.Context, path string, opts *RequestOptions) (map[string]any, error) {
	return s.Request(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request.
func (s *Session) Post(ctx context.Context, path string, opts *RequestOptions) (map[string]any, error) {
	return s.Request(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request.
func (s *Session) Put(ctx context.Context, path string, opts *RequestOptions) (map[string]any, error) {
	return s.Request(ctx, http.MethodPut, path, opts)
}

// Patch issues a PATCH request.
func (s *Session) Patch(ctx context.Context, path string, opts *RequestOptions) (map[string]any, error) {
	return s.Request(ctx, http.MethodPatch, path, opts)
}

// Delete issues a DELETE request.
func (s *Session) Delete(ctx context.Context, path string, opts *RequestOptions) (map[string]any, error) {
	return s.Request(ctx, http.MethodDelete, path, opts)
}

// Request issues one HTTP request and applies the response rules.
func (s *Session) Request(ctx context.Context, method, path string, opts *RequestOptions) (map[string]any, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	endpoint, err := s.joinURL(path, opts.Query)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: err.Error()}
	}

	// The body is encoded once so retried attempts resend the same bytes;
	// file part readers can only be consumed a single time.
	payload, contentType, err := s.buildBody(opts)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: err.Error()}
	}

	var attempt int
	for {
		attempt++
		result, retryable, err := s.doOnce(ctx, method, endpoint, opts, payload, contentType)
		if err == nil {
			return result, nil
		}
		if !retryable || attempt >= s.maxAttempts {
			return nil, err
		}
		s.sleep(s.backoff * time.Duration(attempt))
	}
}

// doOnce performs a single attempt. The bool return reports whether the
// failure is in the transport-retryable class.
func (s *Session) doOnce(ctx context.Context, method, endpoint string, opts *RequestOptions, payload []byte, contentType string) (map[string]any, bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	// Multipart bodies need the library-computed boundary header, so the
	// session default Content-Type is dropped for the duration of the call
	// and restored on every exit path.
	if len(opts.Files) > 0 {
		saved, had := s.defaultHeaders["Content-Type"]
		delete(s.defaultHeaders, "Content-Type")
		defer func() {
			if had {
				s.defaultHeaders["Content-Type"] = saved
			}
		}()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, false, &Error{Kind: KindUnknown, Message: err.Error()}
	}
	for name, value := range s.defaultHeaders {
		req.Header.Set(name, value)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	client := s.client
	if opts.Timeout > 0 {
		override := *s.client
		override.Timeout = opts.Timeout
		client = &override
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if opts.Stream != nil && resp.StatusCode < 300 {
		if _, err := io.Copy(opts.Stream, resp.Body); err != nil {
			return nil, false, &Error{Kind: KindNetworkFailure, Message: err.Error()}
		}
		return map[string]any{}, false, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &Error{Kind: KindNetworkFailure, Message: err.Error()}
	}

	if s.hook != nil {
		if err := s.hook(resp, raw); err != nil {
			return nil, false, err
		}
	}

	if retryStatuses[resp.StatusCode] {
		return nil, true, NewError(resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(raw)))
	}

	result, err := s.postProcess(ctx, resp, raw, opts)
	return result, false, err
}

// postProcess applies the response rules: empty bodies, JSON decoding, 401
// detail routing, and status-to-kind mapping.
func (s *Session) postProcess(ctx context.Context, resp *http.Response, raw []byte, opts *RequestOptions) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if resp.StatusCode == http.StatusNoContent || trimmed == "" {
		if resp.StatusCode >= 400 {
			return nil, NewError(resp.StatusCode, http.StatusText(resp.StatusCode), nil)
		}
		return map[string]any{}, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Detail: trimmed}
		}
		return nil, &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "response is not valid JSON", Detail: trimmed}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, s.routeUnauthorized(ctx, parsed, opts)
	}

	if resp.StatusCode >= 400 {
		message := http.StatusText(resp.StatusCode)
		if detail, ok := parsed["detail"].(string); ok && detail != "" {
			message = detail
		}
		err := NewError(resp.StatusCode, message, parsed)
		return nil, err
	}

	return parsed, nil
}

// routeUnauthorized decides whether a 401 is a genuine credential rejection
// or a stale access token that the coordinator can refresh.
func (s *Session) routeUnauthorized(ctx context.Context, parsed map[string]any, opts *RequestOptions) error {
	detail, _ := parsed["detail"].(string)

	if terminalAuthDetails[detail] {
		return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: detail, Detail: parsed}
	}

	if refreshAuthDetails[detail] && !opts.NoRefresh && s.refresher != nil {
		if err := s.refresher.Refresh(ctx); err != nil {
			return Unauthorized("Session expired. Please login again.")
		}
		return RefreshRequired()
	}

	message := detail
	if message == "" {
		message = http.StatusText(http.StatusUnauthorized)
	}
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message, Detail: parsed}
}

// buildBody encodes the request body. Returns the encoded bytes and, for
// multipart requests, the Content-Type carrying the boundary.
func (s *Session) buildBody(opts *RequestOptions) ([]byte, string, error) {
	if len(opts.Files) > 0 {
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		for _, part := range opts.Files {
			fw, err := writer.CreateFormFile(part.Field, part.Name)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(fw, part.Content); err != nil {
				return nil, "", err
			}
		}
		// Remaining payload travels as plain form fields, not JSON.
		for key, value := range opts.Body {
			if err := writer.WriteField(key, fmt.Sprintf("%v", value)); err != nil {
				return nil, "", err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), writer.FormDataContentType(), nil
	}

	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, "", err
		}
		return encoded, "", nil
	}

	return nil, "", nil
}

// joinURL composes base URL and endpoint path, tolerating slash placement
// on either side, and appends query parameters.
func (s *Session) joinURL(path string, query url.Values) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("no service URL configured")
	}
	full := strings.TrimSuffix(s.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	parsed, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", path, err)
	}
	if len(query) > 0 {
		merged := parsed.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		parsed.RawQuery = merged.Encode()
	}
	return parsed.String(), nil
}

func classifyTransportError(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimedOut, Message: "request timed out"}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimedOut, Message: "request timed out"}
	default:
		return &Error{Kind: KindNetworkFailure, Message: err.Error()}
	}
}
