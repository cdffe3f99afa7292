// ABOUTME: Tests for the audio buffer cache
// ABOUTME: Tests fetch deduplication, error handling, and eviction
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// makeWAV builds a minimal 16-bit PCM RIFF/WAVE file from raw samples.
func makeWAV(samples []int16, sampleRate, channels int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}

	return buf
}

func wavServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	body := makeWAV(make([]int16, 800), 8000, 1)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
}

func TestGetFetchesAndDecodes(t *testing.T) {
	var hits int64
	server := wavServer(t, &hits)
	defer server.Close()

	c := NewBufferCache()

	buf, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if buf.Frames() != 800 {
		t.Errorf("expected 800 frames, got %d", buf.Frames())
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached buffer, got %d", c.Len())
	}
}

func TestGetCacheHitAvoidsFetch(t *testing.T) {
	var hits int64
	server := wavServer(t, &hits)
	defer server.Close()

	c := NewBufferCache()

	first, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("first get failed: %v", err)
	}

	second, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}

	if atomic.LoadInt64(&hits) != 1 {
		t.Errorf("expected exactly 1 fetch, got %d", hits)
	}
	if first.Duration() != second.Duration() {
		t.Errorf("expected identical durations, got %v and %v", first.Duration(), second.Duration())
	}
	if first != second {
		t.Error("expected both calls to return the same buffer")
	}
}

func TestConcurrentGetsSingleFlight(t *testing.T) {
	var hits int64
	server := wavServer(t, &hits)
	defer server.Close()

	c := NewBufferCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), server.URL); err != nil {
				t.Errorf("concurrent get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt64(&hits) != 1 {
		t.Errorf("expected 1 fetch for 10 concurrent gets, got %d", hits)
	}
}

func TestGetHTTPErrorNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	body := makeWAV(make([]int16, 80), 8000, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(body)
	}))
	defer server.Close()

	c := NewBufferCache()

	_, err := c.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected nothing cached after failure, got %d", c.Len())
	}

	// Next call retries the fetch and succeeds
	fail.Store(false)
	if _, err := c.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
}

func TestGetDecodeErrorNotCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not audio"))
	}))
	defer server.Close()

	c := NewBufferCache()

	_, err := c.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if c.Len() != 0 {
		t.Errorf("expected nothing cached after decode failure, got %d", c.Len())
	}
}

func TestClearEvictsBuffers(t *testing.T) {
	var hits int64
	server := wavServer(t, &hits)
	defer server.Close()

	c := NewBufferCache()

	held, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.Len())
	}

	// A previously obtained reference stays usable
	if held.Frames() != 800 {
		t.Errorf("held buffer corrupted after clear: %d frames", held.Frames())
	}

	// Future gets refetch
	if _, err := c.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("get after clear failed: %v", err)
	}
	if atomic.LoadInt64(&hits) != 2 {
		t.Errorf("expected refetch after clear, got %d fetches", hits)
	}
}

func TestGetInvalidURL(t *testing.T) {
	c := NewBufferCache()

	_, err := c.Get(context.Background(), "http://127.0.0.1:1/missing.mp3")
	if err == nil {
		t.Fatal("expected error for unreachable URL")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T", err)
	}
}
