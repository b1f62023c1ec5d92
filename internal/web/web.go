// package web serves the DJ hub's JSON API: recommendations, track selection, lyrics, radio, charts and state
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytdj/internal/aggregate"
	"github.com/desertthunder/ytdj/internal/lyrics"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
)

// StatePath serves the playback state and is the page `serve --open` shows.
const StatePath = "/state/"

const (
	DefaultRadioLimit = 50
	DefaultPlayLimit  = 20
	DefaultMaxVolume  = 100
)

// Aggregator runs recommendation requests. [aggregate.Pipeline] implements it.
type Aggregator interface {
	Aggregate(ctx context.Context, req aggregate.Request) (*models.TrackList, error)
	Radio(ctx context.Context, seedID string, limit int) (*models.TrackList, error)
}

// LyricsFetcher resolves raw lyrics for a track.
type LyricsFetcher interface {
	Fetch(ctx context.Context, q services.LyricsQuery) (*services.LyricsResult, error)
}

// ChartSource serves the chart listing.
type ChartSource interface {
	Charts(ctx context.Context, country string) (models.Charts, error)
}

// Cuer records the start offset of the current track.
type Cuer interface {
	Cue(seconds int) models.PlaybackState
}

// HealthChecker reports whether the catalog proxy is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// PlayHistory lists recent announcements.
type PlayHistory interface {
	Recent(ctx context.Context, limit int) ([]models.Play, error)
}

// HandlerOpts contains the dependencies of a [Handler]. Charts, Health and Plays are optional.
type HandlerOpts struct {
	Pipeline     Aggregator
	Store        *state.Store
	Lyrics       LyricsFetcher
	Cuer         Cuer
	Charts       ChartSource
	Health       HealthChecker
	Plays        PlayHistory
	Logger       *log.Logger
	GapThreshold float64
	StartOffset  int
}

// Handler serves the JSON API. It implements server.Handler.
type Handler struct {
	opts   HandlerOpts
	logger *log.Logger
	mux    *http.ServeMux
	routes []string
}

// NewHandler creates a Handler and registers its routes.
func NewHandler(opts HandlerOpts) *Handler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Store == nil {
		opts.Store = state.NewStore(DefaultMaxVolume)
	}
	if opts.GapThreshold <= 0 {
		opts.GapThreshold = lyrics.DefaultGapThreshold
	}
	if opts.StartOffset <= 0 {
		opts.StartOffset = aggregate.DefaultStartOffset
	}

	h := &Handler{
		opts:   opts,
		logger: shared.WithLogger(opts.Logger, "component", "web"),
		mux:    http.NewServeMux(),
	}
	h.handle("POST /recommendations/{$}", h.recommendations)
	h.handle("GET /tracks/{$}", h.tracks)
	h.handle("GET /track/{idx}/{$}", h.track)
	h.handle("GET /lyrics/{$}", h.lyrics)
	h.handle("POST /radio/{$}", h.radio)
	h.handle("GET /charts/{$}", h.charts)
	h.handle("GET "+StatePath+"{$}", h.state)
	h.handle("GET /plays/{$}", h.plays)
	h.handle("GET /health", h.health)
	return h
}

func (h *Handler) handle(pattern string, fn http.HandlerFunc) {
	h.mux.HandleFunc(pattern, fn)
	h.routes = append(h.routes, pattern)
}

// Routes returns the method patterns served by the handler.
func (h *Handler) Routes() []string { return h.routes }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// recommendationsResponse is the published list plus the echoed volume ceiling.
type recommendationsResponse struct {
	models.TrackList
	MaxVol int `json:"maxVol"`
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	in, err := parseRecommendation(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.opts.Pipeline.Aggregate(r.Context(), in.request())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{TrackList: *list, MaxVol: in.MaxVol})
}

func (h *Handler) tracks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Store.Latest())
}

// track selects position idx, segments its lyrics and cues playback to the first verse.
func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: track index must be an integer", shared.ErrInvalidInput))
		return
	}
	selected, err := h.opts.Store.TrackAt(idx)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
		return
	}

	detail := models.TrackDetail{Track: selected, Verses: []models.Verse{}, StartOffset: h.opts.StartOffset}

	res, err := h.fetchLyrics(r.Context(), services.LyricsQuery{
		VideoID:  selected.ID,
		BrowseID: selected.BrowseID,
		Title:    selected.Title,
		Artist:   selected.Artist,
	})
	switch {
	case errors.Is(err, shared.ErrMissingCredentials):
		h.writeError(w, r, err)
		return
	case err != nil:
		h.logger.Warn("no lyrics for selected track", "videoId", selected.ID, "error", err)
	default:
		detail.Source = res.Source
		detail.Verses = lyrics.SegmentAny(res.Lines, res.Text, h.opts.GapThreshold)
	}

	if len(detail.Verses) > 0 && detail.Verses[0].HasStart() {
		detail.StartOffset = int(detail.Verses[0].StartTime)
	}
	if h.opts.Cuer != nil {
		h.opts.Cuer.Cue(detail.StartOffset)
	}
	writeJSON(w, http.StatusOK, detail)
}

// lyricsResponse is the segmented lyrics for a title lookup.
type lyricsResponse struct {
	Title  string         `json:"title"`
	Artist string         `json:"artist"`
	Source string         `json:"source"`
	Verses []models.Verse `json:"verses"`
}

func (h *Handler) lyrics(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	if title == "" {
		h.writeError(w, r, fmt.Errorf("%w: title", shared.ErrMissingArgument))
		return
	}

	res, err := h.fetchLyrics(r.Context(), services.LyricsQuery{Title: title, Artist: artist})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lyricsResponse{
		Title:  title,
		Artist: artist,
		Source: res.Source,
		Verses: lyrics.SegmentAny(res.Lines, res.Text, h.opts.GapThreshold),
	})
}

func (h *Handler) fetchLyrics(ctx context.Context, q services.LyricsQuery) (*services.LyricsResult, error) {
	if h.opts.Lyrics == nil {
		return nil, fmt.Errorf("%w: lyrics", shared.ErrServiceUnavailable)
	}
	res, err := h.opts.Lyrics.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, shared.ErrLyricsNotFound
	}
	return res, nil
}

func (h *Handler) radio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
		return
	}
	seed := strings.TrimSpace(r.Form.Get("videoId"))
	if seed == "" {
		h.writeError(w, r, fmt.Errorf("%w: videoId", shared.ErrMissingArgument))
		return
	}
	limit, err := formInt(r.Form, "limit", DefaultRadioLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.opts.Pipeline.Radio(r.Context(), seed, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) charts(w http.ResponseWriter, r *http.Request) {
	if h.opts.Charts == nil {
		h.writeError(w, r, fmt.Errorf("%w: charts", shared.ErrServiceUnavailable))
		return
	}
	charts, err := h.opts.Charts.Charts(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Store.Playback())
}

func (h *Handler) plays(w http.ResponseWriter, r *http.Request) {
	if h.opts.Plays == nil {
		writeJSON(w, http.StatusOK, []models.Play{})
		return
	}
	limit, err := formInt(r.URL.Query(), "limit", DefaultPlayLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plays, err := h.opts.Plays.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plays)
}

// healthResponse is always served with 200; a down catalog reports "degraded".
type healthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog"`
	Tracks  int    `json:"tracks"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Catalog: "unknown", Tracks: h.opts.Store.Latest().Len()}
	if h.opts.Health != nil {
		if err := h.opts.Health.Health(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Catalog = err.Error()
		} else {
			resp.Catalog = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
