package track

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentcore/agentcore/pkg/api"
)

// LogStream tails an observability log endpoint over a websocket, falling
// back to polling GETs when the socket cannot be established.
type LogStream struct {
	Session *api.Session
	// Path is the logs endpoint, relative to the service base.
	Path string
	// PollInterval paces the fallback polling. Default DefaultInterval.
	PollInterval time.Duration
}

// Tail writes log lines to out until the context ends or the server closes
// the stream.
func (l *LogStream) Tail(ctx context.Context, out io.Writer) error {
	if err := l.tailSocket(ctx, out); err == nil {
		return nil
	}
	return l.tailPolling(ctx, out)
}

// tailSocket streams over ws(s)://.
func (l *LogStream) tailSocket(ctx context.Context, out io.Writer) error {
	endpoint, err := l.socketURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if token := l.Session.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("failed to open log stream: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller cancels.
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, string(message))
	}
}

// tailPolling fetches the logs endpoint on a cadence and prints only the
// lines not yet seen.
func (l *LogStream) tailPolling(ctx context.Context, out io.Writer) error {
	interval := l.PollInterval
	if interval <= 0 {
		interval = DefaultInterval
	}

	printed := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		resp, err := l.Session.Get(ctx, l.Path, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		lines := logLines(resp)
		for ; printed < len(lines); printed++ {
			fmt.Fprintln(out, lines[printed])
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// socketURL rewrites the session base URL to the websocket scheme.
func (l *LogStream) socketURL() (string, error) {
	base := strings.TrimSuffix(l.Session.BaseURL(), "/") + "/" + strings.TrimPrefix(l.Path, "/")
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid log endpoint: %w", err)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	return parsed.String(), nil
}

func logLines(resp map[string]any) []string {
	raw, ok := resp["logs"].([]any)
	if !ok {
		return nil
	}
	lines := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			lines = append(lines, s)
		}
	}
	return lines
}
