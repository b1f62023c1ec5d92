// YouTube Music [Catalog] implementation
//
// Communicates with the FastAPI proxy server running on port 8080.
// The proxy wraps the ytmusicapi Python library for search, watch playlists and lyrics.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytdj/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Thumbnails decodes the shapes ytmusicapi uses for images: a list, a list of lists,
// a single object, or an object wrapping a "thumbnails" list.
type Thumbnails []YouTubeImage

// UnmarshalJSON flattens every supported shape into one list. Unknown shapes decode to empty.
func (t *Thumbnails) UnmarshalJSON(data []byte) error {
	*t = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for _, item := range items {
			var nested Thumbnails
			if err := nested.UnmarshalJSON(item); err == nil {
				*t = append(*t, nested...)
			}
		}
	case '{':
		var wrapper struct {
			Thumbnails json.RawMessage `json:"thumbnails"`
		}
		if err := json.Unmarshal(data, &wrapper); err == nil && len(wrapper.Thumbnails) > 0 {
			return t.UnmarshalJSON(wrapper.Thumbnails)
		}
		var img YouTubeImage
		if err := json.Unmarshal(data, &img); err == nil && img.URL != "" {
			*t = Thumbnails{img}
		}
	}
	return nil
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a raw search result or watch playlist entry.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  Thumbnails      `json:"thumbnails"`
	Thumbnail   Thumbnails      `json:"thumbnail"`
	ResultType  string          `json:"resultType"`
	VideoType   string          `json:"videoType"`
}

// ArtistName returns the first credited artist, or "".
func (t YouTubeTrack) ArtistName() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// Images returns every thumbnail the record exposes.
func (t YouTubeTrack) Images() []YouTubeImage {
	out := make([]YouTubeImage, 0, len(t.Thumbnails)+len(t.Thumbnail))
	out = append(out, t.Thumbnails...)
	return append(out, t.Thumbnail...)
}

// YouTubeLyrics is the proxy's lyrics payload. Lyrics holds either plain text or timed lines.
type YouTubeLyrics struct {
	Lyrics        json.RawMessage `json:"lyrics"`
	Source        string          `json:"source"`
	HasTimestamps bool            `json:"hasTimestamps"`
}

// Lines returns the lyrics as lines, rendering timed entries as LRC.
func (l YouTubeLyrics) Lines() []string {
	return decodeLines(l.Lyrics)
}

// Text returns the plain text form when the payload is a string.
func (l YouTubeLyrics) Text() string {
	var text string
	if err := json.Unmarshal(l.Lyrics, &text); err == nil {
		return text
	}
	return ""
}

// YouTubeService implements [Catalog] for YouTube Music via proxy.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// WithTimeout bounds every proxy request.
func (y *YouTubeService) WithTimeout(d time.Duration) *YouTubeService {
	if d > 0 {
		y.httpClient = &http.Client{Timeout: d}
	}
	return y
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	apiURL := y.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music API error (status %d): %s", shared.ErrUpstreamUnavailable, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music API error: status %d", shared.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstreamUnavailable, err)
		}
	}

	return nil
}

// Search runs a filtered catalog search.
//
// Calls GET /api/search?q=&filter=&limit= on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query, filter string, limit int) ([]YouTubeTrack, error) {
	params := url.Values{}
	params.Set("q", query)
	if filter != "" {
		params.Set("filter", filter)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var results []YouTubeTrack
	if err := y.doRequest(ctx, http.MethodGet, "/api/search?"+params.Encode(), &results); err != nil {
		return nil, err
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// WatchPlaylist fetches recommendations for a seed track.
//
// Calls GET /api/watch?videoId=&limit=&radio= on the proxy.
func (y *YouTubeService) WatchPlaylist(ctx context.Context, videoID string, limit int, radio bool) (*WatchPlaylist, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("videoId", videoID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if radio {
		params.Set("radio", "true")
	}

	var playlist WatchPlaylist
	if err := y.doRequest(ctx, http.MethodGet, "/api/watch?"+params.Encode(), &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Song fetches song metadata.
//
// Calls GET /api/songs/{id} on the proxy.
func (y *YouTubeService) Song(ctx context.Context, videoID string) (*SongDetails, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}

	var song SongDetails
	if err := y.doRequest(ctx, http.MethodGet, "/api/songs/"+url.PathEscape(videoID), &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// Lyrics fetches lyrics by browse id.
//
// Calls GET /api/lyrics/{browseId} on the proxy.
func (y *YouTubeService) Lyrics(ctx context.Context, browseID string) (*YouTubeLyrics, error) {
	if browseID == "" {
		return nil, fmt.Errorf("%w: browse id is required", shared.ErrMissingArgument)
	}

	var lyrics YouTubeLyrics
	if err := y.doRequest(ctx, http.MethodGet, "/api/lyrics/"+url.PathEscape(browseID), &lyrics); err != nil {
		return nil, err
	}
	return &lyrics, nil
}

// Health checks the proxy.
//
// Calls GET /health on the proxy.
func (y *YouTubeService) Health(ctx context.Context) error {
	return y.doRequest(ctx, http.MethodGet, "/health", nil)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
