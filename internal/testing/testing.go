// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
)

// FakeCatalog is a test double for [services.Catalog].
//
// Search results are looked up by "query|filter" first, then by filter alone.
// Watch playlists are keyed by seed id, with radio mixes under "seed|radio".
type FakeCatalog struct {
	mu sync.Mutex

	SearchResults map[string][]services.YouTubeTrack
	SearchErrs    map[string]error
	Watch         map[string][]services.YouTubeTrack
	WatchErrs     map[string]error
	WatchLyrics   map[string]string
	Songs         map[string]*services.SongDetails
	LyricsByID    map[string]*services.YouTubeLyrics

	// OnSearch and OnWatch run before the fake answers, letting tests block or observe calls.
	OnSearch func(query, filter string)
	OnWatch  func(seed string, radio bool)

	calls []string
}

// NewFakeCatalog returns an empty FakeCatalog with all maps allocated.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		SearchResults: map[string][]services.YouTubeTrack{},
		SearchErrs:    map[string]error{},
		Watch:         map[string][]services.YouTubeTrack{},
		WatchErrs:     map[string]error{},
		WatchLyrics:   map[string]string{},
		Songs:         map[string]*services.SongDetails{},
		LyricsByID:    map[string]*services.YouTubeLyrics{},
	}
}

func (f *FakeCatalog) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns every recorded call in order.
func (f *FakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts recorded calls starting with prefix.
func (f *FakeCatalog) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeCatalog) Search(ctx context.Context, query, filter string, limit int) ([]services.YouTubeTrack, error) {
	f.record(fmt.Sprintf("search:%s:%s", filter, query))
	if f.OnSearch != nil {
		f.OnSearch(query, filter)
	}
	if err := f.SearchErrs[filter]; err != nil {
		return nil, err
	}
	results, ok := f.SearchResults[query+"|"+filter]
	if !ok {
		results = f.SearchResults[filter]
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *FakeCatalog) WatchPlaylist(ctx context.Context, videoID string, limit int, radio bool) (*services.WatchPlaylist, error) {
	key := videoID
	if radio {
		key += "|radio"
	}
	f.record("watch:" + key)
	if f.OnWatch != nil {
		f.OnWatch(videoID, radio)
	}
	if err := f.WatchErrs[key]; err != nil {
		return nil, err
	}
	results := f.Watch[key]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return &services.WatchPlaylist{Tracks: results, Lyrics: f.WatchLyrics[videoID]}, nil
}

func (f *FakeCatalog) Song(ctx context.Context, videoID string) (*services.SongDetails, error) {
	f.record("song:" + videoID)
	if song, ok := f.Songs[videoID]; ok {
		return song, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, videoID)
}

func (f *FakeCatalog) Lyrics(ctx context.Context, browseID string) (*services.YouTubeLyrics, error) {
	f.record("lyrics:" + browseID)
	if l, ok := f.LyricsByID[browseID]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrLyricsNotFound, browseID)
}

// Records builds raw catalog records from id/title pairs.
func Records(pairs ...string) []services.YouTubeTrack {
	out := make([]services.YouTubeTrack, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, services.YouTubeTrack{VideoID: pairs[i], Title: pairs[i+1]})
	}
	return out
}

// FakeFallback is a test double for [services.LyricsFallback].
type FakeFallback struct {
	Response *services.FallbackLyrics
	Err      error
	Calls    int
}

func (f *FakeFallback) SearchLyrics(ctx context.Context, title, artist string) (*services.FallbackLyrics, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Response, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
