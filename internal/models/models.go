// package models defines the data model shared by the DJ hub, the aggregation pipeline and the lyrics segmenter
package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which upstream listing produced a [Track].
type Kind string

const (
	KindSong  Kind = "song"
	KindVideo Kind = "video"
	KindRadio Kind = "radio"
	KindChart Kind = "chart"
)

// Label is a display tag derived from a title or assigned by the producing listing.
type Label string

const (
	LabelOfficial Label = "Official"
	LabelRemix    Label = "Remix"
	LabelSlowed   Label = "Slowed"
	LabelLive     Label = "Live"
	LabelLyrics   Label = "Lyrics"
	LabelCover    Label = "Cover"
	LabelMashup   Label = "Mashup"
	LabelTrending Label = "Trending"
	LabelHit      Label = "Hit"
	LabelRadioMix Label = "Radio Mix"
	LabelVideoMix Label = "Video Mix"
)

// Track is one normalized, playable recommendation.
type Track struct {
	ID           string  `json:"videoId"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Kind         Kind    `json:"type"`
	ThumbnailURL string  `json:"thumbnail"`
	CanonicalURL string  `json:"url"`
	Labels       []Label `json:"labels"`
	SortWeight   int     `json:"sort_weight"`
	Position     int     `json:"position"`
	BrowseID     string  `json:"browseId,omitempty"`
}

// Validate checks that the fields every consumer depends on are present.
func (t Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("track title is required")
	}
	return nil
}

// HasLabel reports whether l is in the track's label set.
func (t Track) HasLabel(l Label) bool {
	for _, existing := range t.Labels {
		if existing == l {
			return true
		}
	}
	return false
}

// Mode selects the aggregation strategy for a request.
type Mode string

const (
	ModeSearch     Mode = "search"
	ModeSelectNext Mode = "selectNext"
	ModeRefresh    Mode = "refresh"
	ModeRadio      Mode = "radio"
)

// TrackList is a published, versioned ordered list.
//
// Tracks[:SongCount] is the song (or radio mix) branch, the remainder is the video branch.
type TrackList struct {
	Version   uint64  `json:"version"`
	Query     string  `json:"query"`
	Mode      Mode    `json:"mode"`
	Tracks    []Track `json:"tracks"`
	SongCount int     `json:"song_count"`
}

// SongBranch returns the first branch of the list.
func (l TrackList) SongBranch() []Track {
	if l.SongCount > len(l.Tracks) {
		return l.Tracks
	}
	return l.Tracks[:l.SongCount]
}

// VideoBranch returns the second branch of the list.
func (l TrackList) VideoBranch() []Track {
	if l.SongCount > len(l.Tracks) {
		return nil
	}
	return l.Tracks[l.SongCount:]
}

// Len returns the number of tracks in the list.
func (l TrackList) Len() int { return len(l.Tracks) }

// Clone returns a deep copy so readers never share backing arrays with the writer.
func (l TrackList) Clone() TrackList {
	out := l
	out.Tracks = make([]Track, len(l.Tracks))
	for i, t := range l.Tracks {
		t.Labels = append([]Label(nil), t.Labels...)
		out.Tracks[i] = t
	}
	return out
}

// PlaybackState is the shared "now playing" pointer and master volume.
type PlaybackState struct {
	Version            uint64 `json:"version"`
	NowPlayingID       string `json:"videoId"`
	NowPlayingTitle    string `json:"title"`
	StartOffsetSeconds int    `json:"timestamp"`
	MasterVolume       int    `json:"volume"`
}

// PlaybackCue is a request to change what the player should load.
type PlaybackCue struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Timestamp int    `json:"timestamp"`
}

// UnknownStart marks a [Verse] whose start time could not be determined.
const UnknownStart float64 = -1

// Verse is a contiguous block of lyric lines.
type Verse struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"start_time"`
	FirstLine string  `json:"first_line"`
	Text      string  `json:"text"`
}

// HasStart reports whether the verse start time is known.
func (v Verse) HasStart() bool { return v.StartTime >= 0 }

// ChartEntry is a chart catalog row: a track plus the collection it was collected for.
type ChartEntry struct {
	Track
	Category  string `json:"category"`
	Era       string `json:"era,omitempty"`
	YearRange string `json:"year_range,omitempty"`
}

// TrackDetail is a selected track with its segmented lyrics.
type TrackDetail struct {
	Track       Track   `json:"track"`
	Verses      []Verse `json:"verses"`
	Source      string  `json:"source,omitempty"`
	StartOffset int     `json:"timestamp"`
}

// Charts is the chart listing served to clients.
type Charts struct {
	Country   string  `json:"country"`
	TopSongs  []Track `json:"top_songs"`
	Trending  []Track `json:"trending"`
	TopVideos []Track `json:"top_videos"`
}

// Play is a recorded announcement from the play history.
type Play struct {
	ID          string    `json:"id"`
	Sequence    int       `json:"sequence"`
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	StartOffset int       `json:"timestamp"`
	PlayedAt    time.Time `json:"played_at"`
}
