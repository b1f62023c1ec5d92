package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytdj/internal/shared"
)

// Lyrics sources reported in [LyricsResult.Source].
const (
	SourceYouTube  = "YT"
	SourceRapidAPI = "RapidAPI"
)

// LyricsQuery identifies the track to fetch lyrics for. Any subset of fields may be set.
type LyricsQuery struct {
	VideoID  string
	BrowseID string
	Title    string
	Artist   string
}

// LyricsResult is the raw material handed to the verse segmenter.
type LyricsResult struct {
	Source string   `json:"source"`
	Lines  []string `json:"lines"`
	Text   string   `json:"text,omitempty"`
}

// Empty reports whether no lyric content was found.
func (r *LyricsResult) Empty() bool {
	if r == nil {
		return true
	}
	return strings.TrimSpace(r.Text) == "" && len(r.Lines) == 0
}

// LyricsService resolves lyrics from the catalog first and the fallback provider second.
type LyricsService struct {
	catalog  Catalog
	fallback LyricsFallback
	logger   *log.Logger
}

// NewLyricsService creates a LyricsService. fallback may be nil.
func NewLyricsService(catalog Catalog, fallback LyricsFallback, logger *log.Logger) *LyricsService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LyricsService{catalog: catalog, fallback: fallback, logger: shared.WithLogger(logger, "component", "lyrics")}
}

// Fetch returns lyrics for q.
//
// Catalog failures fall through to the fallback. A fallback without credentials
// yields [shared.ErrMissingCredentials]; no content at all yields [shared.ErrLyricsNotFound].
func (s *LyricsService) Fetch(ctx context.Context, q LyricsQuery) (*LyricsResult, error) {
	if s.catalog != nil {
		if res, err := s.fromCatalog(ctx, q); err == nil && !res.Empty() {
			return res, nil
		} else if err != nil {
			s.logger.Warn("catalog lyrics unavailable", "videoId", q.VideoID, "error", err)
		}
	}

	if s.fallback == nil || q.Title == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrLyricsNotFound, q.Title)
	}

	resp, err := s.fallback.SearchLyrics(ctx, q.Title, q.Artist)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: fallback status %d", shared.ErrLyricsNotFound, resp.Status)
	}

	res := &LyricsResult{Source: SourceRapidAPI, Lines: resp.Lines()}
	if res.Empty() {
		return nil, fmt.Errorf("%w: %s", shared.ErrLyricsNotFound, q.Title)
	}
	return res, nil
}

func (s *LyricsService) fromCatalog(ctx context.Context, q LyricsQuery) (*LyricsResult, error) {
	browseID := q.BrowseID
	if browseID == "" && q.VideoID != "" {
		playlist, err := s.catalog.WatchPlaylist(ctx, q.VideoID, 1, false)
		if err != nil {
			return nil, err
		}
		browseID = playlist.Lyrics
	}
	if browseID == "" {
		return nil, errors.New("no lyrics browse id")
	}

	lyrics, err := s.catalog.Lyrics(ctx, browseID)
	if err != nil {
		return nil, err
	}
	return &LyricsResult{Source: SourceYouTube, Lines: lyrics.Lines(), Text: lyrics.Text()}, nil
}
