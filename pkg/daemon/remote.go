package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/models"
)

// RemoteClient implements Client by calling the daemon's HTTP API over a Unix socket.
type RemoteClient struct {
	httpClient *http.Client
	socketPath string
}

// NewRemoteClient creates a new RemoteClient connected to the daemon socket.
func NewRemoteClient(socketPath string) (*RemoteClient, error) {
	transport := &http.Transport{
		DialContext:     unixDialer(socketPath),
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &RemoteClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		socketPath: socketPath,
	}, nil
}

// baseURL is the dummy host used for Unix socket HTTP requests.
// The actual connection goes through the Unix socket, not this URL.
const baseURL = "http://unix"

func unixDialer(socketPath string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
}

// SocketPath returns the socket this client talks to.
func (c *RemoteClient) SocketPath() string {
	return c.socketPath
}

// do performs a request and decodes a JSON body into out when out is non-nil.
// Error responses carrying a coded error are returned as that error.
func (c *RemoteClient) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDaemonNotRunning, "failed to reach daemon").
			WithDetail("socket", c.socketPath)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var rerr errors.RunnerError
	if err := json.Unmarshal(body, &rerr); err == nil && rerr.Code != "" {
		return &rerr
	}
	return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// GetState returns the daemon's current snapshot.
func (c *RemoteClient) GetState(ctx context.Context) (models.Snapshot, error) {
	var state models.StateResponse
	if err := c.do(ctx, http.MethodGet, "/api/state", &state); err != nil {
		return models.Snapshot{}, err
	}
	return state.Snapshot(), nil
}

// GetSessions returns the ordered session entries.
func (c *RemoteClient) GetSessions(ctx context.Context) ([]models.SessionEntry, error) {
	var entries []models.SessionEntry
	if err := c.do(ctx, http.MethodGet, "/api/sessions", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetConfig returns the daemon's running configuration.
func (c *RemoteClient) GetConfig(ctx context.Context) (*models.RunningConfig, error) {
	var cfg models.RunningConfig
	if err := c.do(ctx, http.MethodGet, "/api/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Reload asks the daemon to rescan immediately.
func (c *RemoteClient) Reload(ctx context.Context) (models.Snapshot, error) {
	var state models.StateResponse
	if err := c.do(ctx, http.MethodPost, "/api/reload", &state); err != nil {
		return models.Snapshot{}, err
	}
	return state.Snapshot(), nil
}

// Focus asks the daemon to focus session id.
func (c *RemoteClient) Focus(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/focus", nil)
}

// IsRunning returns true if the daemon is available and responding.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// StreamState subscribes to snapshots via Server-Sent Events (SSE).
// The channel is closed when the context is cancelled or the connection is lost.
func (c *RemoteClient) StreamState(ctx context.Context) (<-chan models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	// Use a separate client with no timeout for streaming
	streamTransport := &http.Transport{DialContext: unixDialer(c.socketPath)}
	streamClient := &http.Client{Transport: streamTransport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	ch := make(chan models.Snapshot, 1)

	go func() {
		defer resp.Body.Close()
		defer close(ch)
		defer streamTransport.CloseIdleConnections()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()

			// Skip comments and empty lines
			if strings.HasPrefix(line, ":") || line == "" {
				continue
			}

			jsonStr, ok := strings.CutPrefix(line, "data: ")
			if !ok {
				continue
			}
			var state models.StateResponse
			if err := json.Unmarshal([]byte(jsonStr), &state); err != nil {
				continue // Skip malformed data
			}

			select {
			case ch <- state.Snapshot():
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Alerts subscribes to the daemon's websocket and forwards alert messages.
// Snapshot messages on the same socket are ignored here.
func (c *RemoteClient) Alerts(ctx context.Context) (<-chan models.Alert, error) {
	dialer := websocket.Dialer{
		NetDialContext:   unixDialer(c.socketPath),
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, "ws://unix/api/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to alert stream: %w", err)
	}

	ch := make(chan models.Alert, 16)
	done := make(chan struct{})

	// Unblock the reader when ctx ends.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(ch)
		defer close(done)
		defer conn.Close()
		for {
			var msg struct {
				Type    models.MessageType `json:"type"`
				Payload json.RawMessage    `json:"payload"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != models.MsgAlert {
				continue
			}
			var alert models.Alert
			if err := json.Unmarshal(msg.Payload, &alert); err != nil {
				continue
			}
			select {
			case ch <- alert:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Close cleans up any resources used by the client.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ensure RemoteClient implements Client interface.
var _ Client = (*RemoteClient)(nil)
