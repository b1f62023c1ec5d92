// package services defines the upstream collaborators used by the DJ hub
//
// YouTube Music (via ytmusicapi proxy), RapidAPI lyrics fallback, remote ytdj server
package services

import (
	"context"
	"encoding/json"
	"fmt"
)

// Search filters understood by the catalog proxy.
const (
	FilterSongs  = "songs"
	FilterVideos = "videos"
)

// Catalog is the opaque search and recommendation provider.
type Catalog interface {
	// Search returns ordered candidates for query scoped to filter.
	Search(ctx context.Context, query, filter string, limit int) ([]YouTubeTrack, error)

	// WatchPlaylist returns recommendations seeded by videoID. radio selects the radio-style mix.
	WatchPlaylist(ctx context.Context, videoID string, limit int, radio bool) (*WatchPlaylist, error)

	// Song returns metadata for a single video.
	Song(ctx context.Context, videoID string) (*SongDetails, error)

	// Lyrics returns lyrics for a lyrics browse id.
	Lyrics(ctx context.Context, browseID string) (*YouTubeLyrics, error)
}

// LyricsFallback is the secondary lyrics provider searched by title and artist.
type LyricsFallback interface {
	SearchLyrics(ctx context.Context, title, artist string) (*FallbackLyrics, error)
}

// WatchPlaylist is the recommendation listing for a seed track.
type WatchPlaylist struct {
	Tracks []YouTubeTrack `json:"tracks"`
	Lyrics string         `json:"lyrics"` // lyrics browse id for the seed, if any
}

// SongDetails is the subset of song metadata used for radio seeding.
type SongDetails struct {
	VideoDetails struct {
		VideoID        string `json:"videoId"`
		Title          string `json:"title"`
		Author         string `json:"author"`
		MusicVideoType string `json:"musicVideoType"`
	} `json:"videoDetails"`
}

// FallbackLyrics is the passthrough envelope of the lyrics fallback provider.
type FallbackLyrics struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// OK reports whether the provider answered with a 2xx status.
func (f FallbackLyrics) OK() bool {
	return f.Status >= 200 && f.Status < 300
}

// Lines extracts lyric lines from the provider payload.
//
// The payload is either a list of (possibly LRC-tagged) strings, a single string, or an
// object carrying one of those under "lyrics" or "lines".
func (f FallbackLyrics) Lines() []string {
	return decodeLines(f.Data)
}

func decodeLines(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return lines
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return splitLines(text)
	}

	var timed []timedLine
	if err := json.Unmarshal(raw, &timed); err == nil && len(timed) > 0 {
		out := make([]string, 0, len(timed))
		for _, l := range timed {
			out = append(out, l.lrc())
		}
		return out
	}

	var obj struct {
		Lyrics json.RawMessage `json:"lyrics"`
		Lines  json.RawMessage `json:"lines"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if len(obj.Lines) > 0 {
			return decodeLines(obj.Lines)
		}
		if len(obj.Lyrics) > 0 {
			return decodeLines(obj.Lyrics)
		}
	}
	return nil
}

// timedLine is a synced lyric line with a millisecond start.
type timedLine struct {
	Text      string `json:"text"`
	StartTime int    `json:"start_time"`
}

// lrc renders the line as "[mm:ss.cc]text".
func (l timedLine) lrc() string {
	ms := l.StartTime
	return fmt.Sprintf("[%02d:%02d.%02d]%s", ms/60000, (ms/1000)%60, (ms%1000)/10, l.Text)
}
