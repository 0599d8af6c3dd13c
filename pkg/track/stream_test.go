package track

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentcore/agentcore/pkg/api"
)

func TestSocketURL(t *testing.T) {
	tests := []struct {
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{"https://api.example/", "api/deployments/1/logs/", "wss://api.example/api/deployments/1/logs/", false},
		{"http://localhost:8000", "/api/deployments/1/logs/", "ws://localhost:8000/api/deployments/1/logs/", false},
		{"ftp://api.example/", "logs/", "", true},
	}
	for _, tt := range tests {
		l := &LogStream{Session: api.NewSession(tt.base), Path: tt.path}
		got, err := l.socketURL()
		if tt.wantErr {
			if err == nil {
				t.Errorf("base %q: expected error", tt.base)
			}
			continue
		}
		if err != nil {
			t.Errorf("base %q: %v", tt.base, err)
			continue
		}
		if got != tt.want {
			t.Errorf("socketURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestTailSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, line := range []string{"line one", "line two"} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	}))
	defer server.Close()

	session := api.NewSession(server.URL)
	session.SetToken("tok-1")
	l := &LogStream{Session: session, Path: "api/deployments/1/logs/"}

	var out strings.Builder
	if err := l.Tail(context.Background(), &out); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if out.String() != "line one\nline two\n" {
		t.Errorf("output = %q", out.String())
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected bearer header on dial, got %q", gotAuth)
	}
}

func TestTailPollingPrintsOnlyUnseenLines(t *testing.T) {
	var polls int
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			fmt.Fprint(w, `{"logs": ["a", "b"]}`)
			return
		}
		fmt.Fprint(w, `{"logs": ["a", "b", "c"]}`)
		if polls == 2 {
			close(done)
		}
	}))
	defer server.Close()

	session := api.NewSession(server.URL)
	l := &LogStream{Session: session, Path: "api/deployments/1/logs/", PollInterval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-done
		// Let the second poll finish printing before the watch is ended.
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var out strings.Builder
	if err := l.tailPolling(ctx, &out); err != nil {
		t.Fatalf("tailPolling: %v", err)
	}
	if out.String() != "a\nb\nc\n" {
		t.Errorf("output = %q", out.String())
	}
}
