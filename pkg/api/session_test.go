package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func noSleep(time.Duration) {}

func newTestSession(t *testing.T, handler http.HandlerFunc) (*Session, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	session := NewSession(server.URL)
	session.SetRetry(3, time.Millisecond, noSleep)
	return session, server
}

func TestRequestSendsBearerAndDefaults(t *testing.T) {
	var gotAuth, gotAgent, gotType string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		gotType = r.Header.Get("Content-Type")
		fmt.Fprint(w, `{"ok": true}`)
	})
	session.SetToken("tok-1")

	resp, err := session.Get(context.Background(), "api/projects/", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp["ok"] != true {
		t.Errorf("expected decoded body, got %v", resp)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotAgent != UserAgent {
		t.Errorf("expected user agent %q, got %q", UserAgent, gotAgent)
	}
	if gotType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotType)
	}
}

func TestRequestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	hasAuth := false
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		fmt.Fprint(w, `{}`)
	})

	if _, err := session.Get(context.Background(), "api/health/", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hasAuth {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestJoinURLSlashes(t *testing.T) {
	var gotPath string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{}`)
	})

	tests := []struct {
		base string
		path string
		want string
	}{
		{session.BaseURL(), "api/users/", "/api/users/"},
		{session.BaseURL() + "/", "api/users/", "/api/users/"},
		{session.BaseURL(), "/api/users/", "/api/users/"},
	}
	for _, tt := range tests {
		session.SetBaseURL(tt.base)
		if _, err := session.Get(context.Background(), tt.path, nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if gotPath != tt.want {
			t.Errorf("base %q path %q: expected %q, got %q", tt.base, tt.path, tt.want, gotPath)
		}
	}
}

func TestQueryParameters(t *testing.T) {
	var gotQuery string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{}`)
	})

	opts := &RequestOptions{Query: map[string][]string{"page": {"2"}, "search": {"alpha"}}}
	if _, err := session.Get(context.Background(), "api/projects/", opts); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(gotQuery, "page=2") || !strings.Contains(gotQuery, "search=alpha") {
		t.Errorf("expected query parameters, got %q", gotQuery)
	}
}

func TestEmptyBodyBecomesEmptyMap(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := session.Delete(context.Background(), "api/projects/7/", nil)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if resp == nil || len(resp) != 0 {
		t.Errorf("expected empty map for 204, got %v", resp)
	}
}

func TestNonJSONBody(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	})

	_, err := session.Get(context.Background(), "api/projects/", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindUnknown {
		t.Errorf("expected KindUnknown, got %s", apiErr.Kind)
	}
	if apiErr.Detail != "<html>not json</html>" {
		t.Errorf("expected raw body preserved, got %v", apiErr.Detail)
	}
}

func TestDetailPromotedToMessage(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail": "Project not found."}`)
	})

	_, err := session.Get(context.Background(), "api/projects/99/", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
	if apiErr.Message != "Project not found." {
		t.Errorf("expected detail promoted, got %q", apiErr.Message)
	}
}

func TestTransportRetryThenSuccess(t *testing.T) {
	var calls int
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	})

	resp, err := session.Get(context.Background(), "api/projects/", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp["ok"] != true {
		t.Errorf("expected success after retries, got %v", resp)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestTransportRetryExhausted(t *testing.T) {
	var calls int
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := session.Get(context.Background(), "api/projects/", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", apiErr.Status)
	}
	if calls != 3 {
		t.Errorf("expected retry cap of 3 attempts, got %d", calls)
	}
}

func TestNonRetryableStatusSingleAttempt(t *testing.T) {
	var calls int
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail": "bad input"}`)
	})

	if _, err := session.Get(context.Background(), "api/projects/", nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("400 must not be retried, got %d attempts", calls)
	}
}

func TestTransportBackoffNonDecreasing(t *testing.T) {
	var slept []time.Duration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	session := NewSession(server.URL)
	session.SetRetry(4, 10*time.Millisecond, func(d time.Duration) { slept = append(slept, d) })

	if _, err := session.Get(context.Background(), "api/projects/", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(slept) != 3 {
		t.Fatalf("expected 3 sleeps for 4 attempts, got %d", len(slept))
	}
	for i := 1; i < len(slept); i++ {
		if slept[i] < slept[i-1] {
			t.Errorf("backoff decreased: %v then %v", slept[i-1], slept[i])
		}
	}
}

type fakeRefresher struct {
	calls int
	err   error
	then  func()
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	if f.then != nil {
		f.then()
	}
	return f.err
}

func TestUnauthorizedTerminalDetail(t *testing.T) {
	refresher := &fakeRefresher{}
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "No active account found with the given credentials"}`)
	})
	session.SetRefresher(refresher)

	_, err := session.Post(context.Background(), "api/login/", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindUnauthorized {
		t.Errorf("expected KindUnauthorized, got %s", apiErr.Kind)
	}
	if refresher.calls != 0 {
		t.Errorf("terminal 401 must not trigger refresh, got %d calls", refresher.calls)
	}
}

func TestUnauthorizedRefreshSuccessRaisesSentinel(t *testing.T) {
	refresher := &fakeRefresher{}
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Given token not valid for any token type"}`)
	})
	session.SetRefresher(refresher)

	_, err := session.Get(context.Background(), "api/projects/", nil)
	if !IsRefreshRequired(err) {
		t.Fatalf("expected refresh sentinel, got %v", err)
	}
	if refresher.calls != 1 {
		t.Errorf("expected one refresh call, got %d", refresher.calls)
	}
}

func TestUnauthorizedRefreshFailure(t *testing.T) {
	refresher := &fakeRefresher{err: Unauthorized("Session expired. Please login again.")}
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Authentication credentials were not provided."}`)
	})
	session.SetRefresher(refresher)

	_, err := session.Get(context.Background(), "api/projects/", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if IsRefreshRequired(err) {
		t.Error("failed refresh must not raise the sentinel")
	}
	if apiErr.Message != "Session expired. Please login again." {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestUnauthorizedNoRefreshOption(t *testing.T) {
	refresher := &fakeRefresher{}
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Given token not valid for any token type"}`)
	})
	session.SetRefresher(refresher)

	_, err := session.Post(context.Background(), "api/token/refresh/", &RequestOptions{NoRefresh: true})
	if IsRefreshRequired(err) {
		t.Error("NoRefresh request must not raise the sentinel")
	}
	if refresher.calls != 0 {
		t.Errorf("NoRefresh request must not refresh, got %d calls", refresher.calls)
	}
}

func TestMultipartRestoresContentTypeDefault(t *testing.T) {
	var gotType string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		fmt.Fprint(w, `{}`)
	})

	opts := &RequestOptions{
		Body:  map[string]any{"name": "weights"},
		Files: []FilePart{{Field: "file", Name: "weights.bin", Content: strings.NewReader("payload")}},
	}
	if _, err := session.Post(context.Background(), "api/datasources/", opts); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if !strings.HasPrefix(gotType, "multipart/form-data; boundary=") {
		t.Errorf("expected multipart content type, got %q", gotType)
	}
	if got := session.DefaultHeader("Content-Type"); got != "application/json" {
		t.Errorf("session default Content-Type not restored, got %q", got)
	}
}

func TestMultipartRetryResendsFileContent(t *testing.T) {
	var calls int
	var contents []string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			t.Errorf("read part: %v", err)
			return
		}
		contents = append(contents, string(raw))
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{}`)
	})

	opts := &RequestOptions{
		Files: []FilePart{{Field: "file", Name: "weights.bin", Content: strings.NewReader("payload")}},
	}
	if _, err := session.Post(context.Background(), "api/datasources/", opts); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	for i, got := range contents {
		if got != "payload" {
			t.Errorf("attempt %d file content = %q, want %q", i+1, got, "payload")
		}
	}
}

func TestStreamWritesRawBody(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "raw artifact bytes")
	})

	var sink strings.Builder
	resp, err := session.Get(context.Background(), "api/datasources/1/versions/3/download/", &RequestOptions{Stream: &sink})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sink.String() != "raw artifact bytes" {
		t.Errorf("expected streamed body, got %q", sink.String())
	}
	if resp == nil {
		t.Error("expected non-nil empty result for streamed response")
	}
}

func TestResponseHookError(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	hookErr := errors.New("rejected by hook")
	session.SetHook(func(resp *http.Response, body []byte) error { return hookErr })

	if _, err := session.Get(context.Background(), "api/projects/", nil); !errors.Is(err, hookErr) {
		t.Errorf("expected hook error, got %v", err)
	}
}

func TestTimeoutClassifiedAsTimedOut(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	})
	session.SetRetry(1, time.Millisecond, noSleep)

	_, err := session.Get(context.Background(), "api/projects/", &RequestOptions{Timeout: 20 * time.Millisecond})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindTimedOut {
		t.Errorf("expected KindTimedOut, got %s", apiErr.Kind)
	}
}

func TestConnectionRefusedClassifiedAsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	session := NewSession(server.URL)
	session.SetRetry(1, time.Millisecond, noSleep)
	server.Close()

	_, err := session.Get(context.Background(), "api/projects/", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindNetworkFailure {
		t.Errorf("expected KindNetworkFailure, got %s", apiErr.Kind)
	}
}

func TestBodyEncodedAsJSON(t *testing.T) {
	var gotBody map[string]any
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		fmt.Fprint(w, `{}`)
	})

	opts := &RequestOptions{Body: map[string]any{"email": "ops@example.test", "password": "pw"}}
	if _, err := session.Post(context.Background(), "api/login/", opts); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotBody["email"] != "ops@example.test" {
		t.Errorf("expected JSON body, got %v", gotBody)
	}
}
