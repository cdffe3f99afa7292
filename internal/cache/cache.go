// ABOUTME: URL-keyed cache of decoded audio buffers
// ABOUTME: Fetches remote resources once and shares decoded PCM across plays
package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	log "github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
)

// LoadError indicates a resource could not be fetched or decoded.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load audio %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// BufferCache maps resource URLs to decoded audio buffers. Buffers live until
// an explicit Clear; a failed load caches nothing so the next Get retries.
type BufferCache struct {
	mu      sync.RWMutex
	buffers map[string]*audio.Buffer
	group   singleflight.Group
	client  *http.Client
}

// NewBufferCache creates an empty cache using the default HTTP client.
func NewBufferCache() *BufferCache {
	return NewBufferCacheWithClient(&http.Client{})
}

// NewBufferCacheWithClient creates a cache with a caller-supplied HTTP client.
func NewBufferCacheWithClient(client *http.Client) *BufferCache {
	return &BufferCache{
		buffers: make(map[string]*audio.Buffer),
		client:  client,
	}
}

// Get returns the decoded buffer for url, fetching and decoding it on first
// use. Concurrent calls for the same uncached URL share a single fetch.
func (c *BufferCache) Get(ctx context.Context, url string) (*audio.Buffer, error) {
	c.mu.RLock()
	buf, ok := c.buffers[url]
	c.mu.RUnlock()

	if ok {
		log.Debug("audio cache hit", "url", url)
		return buf, nil
	}

	result, err, _ := c.group.Do(url, func() (interface{}, error) {
		// A concurrent flight may have stored the buffer already.
		c.mu.RLock()
		buf, ok := c.buffers[url]
		c.mu.RUnlock()
		if ok {
			return buf, nil
		}

		loaded, err := c.fetchAndDecode(ctx, url)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.buffers[url] = loaded
		c.mu.Unlock()

		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*audio.Buffer), nil
}

// fetchAndDecode downloads the resource and decodes it into PCM.
func (c *BufferCache) fetchAndDecode(ctx context.Context, url string) (*audio.Buffer, error) {
	log.Debug("fetching audio", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &LoadError{URL: url, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}

	buf, err := audio.Decode(data)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}

	log.Debug("audio decoded", "url", url, "duration", buf.Duration())
	return buf, nil
}

// Clear evicts all cached buffers. Playback sessions holding references to
// already-loaded buffers are unaffected; only future Gets refetch.
func (c *BufferCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffers = make(map[string]*audio.Buffer)
	log.Debug("audio cache cleared")
}

// Len returns the number of cached buffers.
func (c *BufferCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}
