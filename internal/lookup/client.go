// ABOUTME: Client for the name-clip lookup service
// ABOUTME: Resolves profile clip URLs over HTTP and streams clip-ready events over WebSocket
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/Storyglow-Audio/narrate-go/internal/splicer"
)

// Config holds lookup client configuration.
type Config struct {
	// ServerAddr is the host:port of the lookup service.
	ServerAddr string
	// Timeout bounds each HTTP resolution request.
	Timeout time.Duration
}

// ClipReadyEvent announces that a freshly generated name clip is available
// for download. Subscribers typically prefetch the URL into the buffer cache.
type ClipReadyEvent struct {
	ProfileID string `json:"profile_id"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
}

// Client resolves name-clip URLs for a child profile. Clips that have not
// been generated yet resolve to an empty URL rather than an error, so
// playback can proceed with those insertions skipped.
type Client struct {
	config Config
	http   *http.Client
	mu     sync.RWMutex
	conn   *websocket.Conn

	// ClipReady delivers events from an active subscription.
	ClipReady chan ClipReadyEvent

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a lookup client for the given service address.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:    config,
		http:      &http.Client{Timeout: config.Timeout},
		ClipReady: make(chan ClipReadyEvent, 16),
		ctx:       ctx,
		cancel:    cancel,
	}
}

type clipResponse struct {
	URL string `json:"url"`
}

// ResolveClip returns the audio URL for one of a profile's name clips. A
// clip that has not been generated yet returns an empty URL and no error.
func (c *Client) ResolveClip(ctx context.Context, profileID string, kind splicer.Placeholder) (string, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.config.ServerAddr,
		Path:   fmt.Sprintf("/v1/profiles/%s/clips/%s", url.PathEscape(profileID), kind),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build clip request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve %s clip: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve %s clip: unexpected status %d", kind, resp.StatusCode)
	}

	var body clipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parse clip response: %w", err)
	}
	return body.URL, nil
}

// ResolveClips resolves both placeholder kinds for a profile. Missing clips
// come back as empty URLs inside the result.
func (c *Client) ResolveClips(ctx context.Context, profileID string) (splicer.NameClips, error) {
	var clips splicer.NameClips

	childURL, err := c.ResolveClip(ctx, profileID, splicer.PlaceholderChild)
	if err != nil {
		return clips, err
	}
	petURL, err := c.ResolveClip(ctx, profileID, splicer.PlaceholderPet)
	if err != nil {
		return clips, err
	}

	clips.ChildURL = childURL
	clips.PetURL = petURL
	return clips, nil
}

// Subscribe opens the clip-ready event stream. Events arrive on ClipReady
// until the connection drops or Close is called.
func (c *Client) Subscribe() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/v1/events"}
	log.Debug("subscribing to clip events", "url", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readEvents()
	return nil
}

type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readEvents reads and routes incoming events.
func (c *Client) readEvents() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		var env eventEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Debug("event stream closed", "err", err)
			return
		}

		switch env.Type {
		case "clip/ready":
			var ev ClipReadyEvent
			if err := json.Unmarshal(env.Payload, &ev); err != nil {
				log.Warn("malformed clip/ready event", "err", err)
				continue
			}
			select {
			case c.ClipReady <- ev:
			case <-c.ctx.Done():
				return
			}

		default:
			log.Debug("ignoring event", "type", env.Type)
		}
	}
}

// IsConnected returns subscription status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close tears down the event subscription.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}
