// package aggregate builds the published track list from parallel, best-effort catalog calls
package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
	"github.com/desertthunder/ytdj/internal/tracks"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit       = 20
	MaxLimit           = 50
	DefaultCandidates  = 3
	DefaultStartOffset = 20

	// ATVVideoType marks an audio-only art track, which has no video radio of its own.
	ATVVideoType = "MUSIC_VIDEO_TYPE_ATV"
)

// Announcer receives server-originated "play" cues. The synchronization hub implements it.
type Announcer interface {
	Announce(ctx context.Context, cue models.PlaybackCue)
}

// Request is one aggregation call.
type Request struct {
	Query    string
	Limit    int
	Mode     models.Mode
	AnchorID string
}

// PipelineOpts contains the dependencies of a [Pipeline].
type PipelineOpts struct {
	Catalog     services.Catalog
	Store       *state.Store
	Announcer   Announcer
	Cache       *Cache
	Logger      *log.Logger
	Shuffle     tracks.Shuffler
	Candidates  int
	StartOffset int
}

// Pipeline runs the search, selectNext, refresh and radio strategies and publishes their results.
type Pipeline struct {
	catalog     services.Catalog
	store       *state.Store
	announcer   Announcer
	cache       *Cache
	logger      *log.Logger
	shuffle     tracks.Shuffler
	candidates  int
	startOffset int
}

// NewPipeline creates a Pipeline, filling defaults for unset options.
func NewPipeline(opts PipelineOpts) *Pipeline {
	if opts.Store == nil {
		opts.Store = state.NewStore(100)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Shuffle == nil {
		opts.Shuffle = tracks.DefaultShuffler
	}
	if opts.Candidates <= 0 {
		opts.Candidates = DefaultCandidates
	}
	if opts.StartOffset <= 0 {
		opts.StartOffset = DefaultStartOffset
	}

	return &Pipeline{
		catalog:     opts.Catalog,
		store:       opts.Store,
		announcer:   opts.Announcer,
		cache:       opts.Cache,
		logger:      shared.WithLogger(opts.Logger, "component", "aggregate"),
		shuffle:     opts.Shuffle,
		candidates:  opts.Candidates,
		startOffset: opts.StartOffset,
	}
}

// Store returns the store the pipeline publishes into.
func (p *Pipeline) Store() *state.Store { return p.store }

// branchSpec describes one of the two parallel sub-pipelines.
type branchSpec struct {
	filter string
	kind   models.Kind
}

var (
	songBranch  = branchSpec{filter: services.FilterSongs, kind: models.KindSong}
	videoBranch = branchSpec{filter: services.FilterVideos, kind: models.KindVideo}
)

// Aggregate runs req and publishes the resulting list.
//
// Branch failures are logged and leave that branch short. Only two empty branches fail, with
// [shared.ErrNoCandidates]. If a newer request published first, the result is returned
// without replacing the newer list.
func (p *Pipeline) Aggregate(ctx context.Context, req Request) (*models.TrackList, error) {
	if p.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	req.Limit = ClampLimit(req.Limit)
	req.Query = strings.TrimSpace(req.Query)
	if req.Mode == "" {
		req.Mode = models.ModeSearch
	}

	switch req.Mode {
	case models.ModeSearch:
		return p.search(ctx, req)
	case models.ModeSelectNext:
		return p.selectNext(ctx, req)
	case models.ModeRefresh:
		return p.refresh(ctx, req)
	case models.ModeRadio:
		seed := req.AnchorID
		if seed == "" {
			seed = req.Query
		}
		return p.Radio(ctx, seed, req.Limit)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidInput, req.Mode)
	}
}

func (p *Pipeline) search(ctx context.Context, req Request) (*models.TrackList, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is required", shared.ErrInvalidInput)
	}

	ticket := p.store.Begin()
	key := CacheKey(req.Query, req.Limit, req.AnchorID)
	if cached, ok := p.cache.Get(key); ok {
		p.logger.Debug("cache hit", "key", key)
		return p.publish(ticket, cached), nil
	}

	songs, videos := p.runBranches(ctx, req.Query, req.Limit, req.AnchorID, "", false)
	list, err := p.assemble(req, songs, videos)
	if err != nil {
		return nil, err
	}

	p.cache.Add(key, *list)
	return p.publish(ticket, *list), nil
}

func (p *Pipeline) selectNext(ctx context.Context, req Request) (*models.TrackList, error) {
	if req.Query == "" && req.AnchorID == "" {
		return nil, fmt.Errorf("%w: query or anchor is required", shared.ErrInvalidInput)
	}

	ticket := p.store.Begin()
	target, found := p.resolveTarget(req)
	if found {
		p.announce(ctx, target)
	}

	query := req.Query
	if query == "" {
		query = target.Title
	}

	songs, videos := p.runBranches(ctx, query, req.Limit, target.ID, query, true)

	if found {
		if target.Kind == models.KindVideo {
			videos = prepend(target, videos, req.Limit)
		} else {
			songs = prepend(target, songs, req.Limit)
		}
	}

	songs = tracks.Reorder(songs, target.ID, query, tracks.Pin, p.shuffle)
	videos = tracks.Reorder(videos, target.ID, query, tracks.Pin, p.shuffle)

	list, err := p.assemble(req, songs, videos)
	if err != nil {
		return nil, err
	}
	return p.publish(ticket, *list), nil
}

func (p *Pipeline) refresh(ctx context.Context, req Request) (*models.TrackList, error) {
	current := p.store.Latest()
	if current.Len() == 0 {
		p.logger.Info("refresh without a published list, running search", "query", req.Query)
		req.Mode = models.ModeSearch
		return p.search(ctx, req)
	}

	ticket := p.store.Begin()
	anchor := current.Tracks[0]
	query := anchor.Title

	songs, videos := p.runBranches(ctx, query, req.Limit, anchor.ID, query, true)
	songs = tracks.WithoutID(tracks.Reorder(songs, anchor.ID, query, tracks.Exclude, p.shuffle), anchor.ID)
	videos = tracks.WithoutID(tracks.Reorder(videos, anchor.ID, query, tracks.Exclude, p.shuffle), anchor.ID)

	req.Query = query
	list, err := p.assemble(req, songs, videos)
	if err != nil {
		return nil, err
	}
	return p.publish(ticket, *list), nil
}

// runBranches runs the song and video chains concurrently. Each chain searches, then expands
// from anchorID or its own first candidate, without waiting on the other chain. Expansion
// results never repeat anchorID; search candidates drop it only when dropAnchor is set.
func (p *Pipeline) runBranches(ctx context.Context, query string, limit int, anchorID, excludeTitle string, dropAnchor bool) (songs, videos []models.Track) {
	var g errgroup.Group
	g.Go(func() error {
		songs = p.branch(ctx, songBranch, query, limit, anchorID, excludeTitle, dropAnchor)
		return nil
	})
	g.Go(func() error {
		videos = p.branch(ctx, videoBranch, query, limit, anchorID, excludeTitle, dropAnchor)
		return nil
	})
	_ = g.Wait()
	return songs, videos
}

func (p *Pipeline) branch(ctx context.Context, spec branchSpec, query string, limit int, anchorID, excludeTitle string, dropAnchor bool) []models.Track {
	logger := p.logger.With("branch", spec.filter)

	records, err := p.catalog.Search(ctx, query, spec.filter, p.candidates)
	if err != nil {
		logger.Warn("search failed", "query", query, "error", fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err))
		records = nil
	}

	base := tracks.NormalizeAll(records, spec.kind, excludeTitle)
	if dropAnchor {
		base = tracks.WithoutID(base, anchorID)
	}
	if len(base) > limit {
		base = base[:limit]
	}

	seed := anchorID
	if seed == "" && len(base) > 0 {
		seed = base[0].ID
	}
	if seed == "" || len(base) >= limit {
		return base
	}

	playlist, err := p.catalog.WatchPlaylist(ctx, seed, limit, false)
	if err != nil {
		logger.Warn("expansion failed", "seed", seed, "error", fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err))
		return base
	}

	return appendUnique(base, tracks.NormalizeEach(playlist.Tracks, spec.kind, excludeTitle), limit, anchorID)
}

// resolveTarget finds the selected track: explicit anchor first, then a title match in the
// published list. An anchor missing from the list is synthesized from the query.
func (p *Pipeline) resolveTarget(req Request) (models.Track, bool) {
	if req.AnchorID != "" {
		for _, t := range p.store.Latest().Tracks {
			if t.ID == req.AnchorID {
				return t, true
			}
		}
		return models.Track{
			ID:           req.AnchorID,
			Title:        req.Query,
			Kind:         models.KindSong,
			CanonicalURL: tracks.CanonicalURL(req.AnchorID),
			ThumbnailURL: tracks.ResolveThumbnail(req.AnchorID, nil),
			Labels:       tracks.DetectLabels(req.Query),
		}, true
	}
	return p.store.FindByTitle(req.Query)
}

func (p *Pipeline) announce(ctx context.Context, t models.Track) {
	if p.announcer == nil {
		return
	}
	p.announcer.Announce(ctx, models.PlaybackCue{VideoID: t.ID, Title: t.Title, Timestamp: p.startOffset})
}

// assemble concatenates the branches, dropping video entries already in the song branch.
func (p *Pipeline) assemble(req Request, songs, videos []models.Track) (*models.TrackList, error) {
	seen := make(map[string]struct{}, len(songs))
	songs = dedupe(songs, seen)
	videos = dedupe(videos, seen)

	if len(songs) == 0 && len(videos) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrNoCandidates, req.Query)
	}

	all := make([]models.Track, 0, len(songs)+len(videos))
	all = append(all, songs...)
	all = append(all, videos...)
	for i := range all {
		all[i].Position = i
	}

	return &models.TrackList{Query: req.Query, Mode: req.Mode, Tracks: all, SongCount: len(songs)}, nil
}

func (p *Pipeline) publish(ticket state.Ticket, list models.TrackList) *models.TrackList {
	published, ok := p.store.Publish(ticket, list)
	if !ok {
		p.logger.Info("discarding stale result", "query", list.Query, "mode", list.Mode, "current", published.Version)
		for i := range list.Tracks {
			list.Tracks[i].Position = i
		}
		list.Version = 0
		return &list
	}
	return &published
}

// ClampLimit bounds a requested limit to 1..MaxLimit, defaulting to DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func appendUnique(base, extra []models.Track, limit int, skipID string) []models.Track {
	seen := make(map[string]struct{}, len(base)+1)
	for _, t := range base {
		seen[t.ID] = struct{}{}
	}
	if skipID != "" {
		seen[skipID] = struct{}{}
	}

	for _, t := range extra {
		if len(base) >= limit {
			break
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		base = append(base, t)
	}
	return base
}

func dedupe(ts []models.Track, seen map[string]struct{}) []models.Track {
	out := ts[:0:0]
	for _, t := range ts {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func prepend(t models.Track, ts []models.Track, limit int) []models.Track {
	out := make([]models.Track, 0, len(ts)+1)
	out = append(out, t)
	for _, existing := range ts {
		if len(out) >= limit {
			break
		}
		if existing.ID != t.ID {
			out = append(out, existing)
		}
	}
	return out
}

// Radio builds the audio and video radio mixes for seedID and publishes them.
//
// The audio mix is fetched right away. The video mix waits only on its own seed
// resolution: an audio-track (ATV) seed is swapped for the best video search hit.
func (p *Pipeline) Radio(ctx context.Context, seedID string, limit int) (*models.TrackList, error) {
	if p.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}
	seedID = strings.TrimSpace(seedID)
	if seedID == "" {
		return nil, fmt.Errorf("%w: seed video id is required", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = MaxLimit
	}
	limit = ClampLimit(limit)

	ticket := p.store.Begin()

	var audio, video []models.Track
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		audio = p.radioMix(gctx, seedID, limit, models.LabelRadioMix)
		return nil
	})
	g.Go(func() error {
		videoSeed := p.resolveVideoSeed(gctx, seedID)
		if videoSeed == seedID {
			p.logger.Debug("video seed matches audio seed, skipping video mix", "seed", seedID)
			return nil
		}
		video = p.radioMix(gctx, videoSeed, limit, models.LabelVideoMix)
		return nil
	})
	_ = g.Wait()

	// assemble drops video-mix ids already in the audio mix so positions stay unique.
	list, err := p.assemble(Request{Query: seedID, Mode: models.ModeRadio}, audio, video)
	if err != nil {
		return nil, err
	}
	return p.publish(ticket, *list), nil
}

func (p *Pipeline) radioMix(ctx context.Context, seed string, limit int, label models.Label) []models.Track {
	playlist, err := p.catalog.WatchPlaylist(ctx, seed, limit, true)
	if err != nil {
		p.logger.Warn("radio fetch failed", "seed", seed, "mix", label, "error", fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err))
		return nil
	}

	out := make([]models.Track, 0, len(playlist.Tracks))
	for _, rec := range playlist.Tracks {
		t, err := tracks.NormalizeRadio(rec, label)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return appendUnique(nil, out, limit, "")
}

// resolveVideoSeed returns the id whose radio yields music videos for seed.
// Lookup failures keep the original seed.
func (p *Pipeline) resolveVideoSeed(ctx context.Context, seed string) string {
	song, err := p.catalog.Song(ctx, seed)
	if err != nil {
		p.logger.Warn("song lookup failed", "seed", seed, "error", err)
		return seed
	}
	if song.VideoDetails.MusicVideoType != ATVVideoType {
		return seed
	}

	query := strings.TrimSpace(song.VideoDetails.Title + " video song")
	results, err := p.catalog.Search(ctx, query, services.FilterVideos, 1)
	if err != nil || len(results) == 0 || results[0].VideoID == "" {
		p.logger.Warn("video seed search found nothing", "query", query, "error", err)
		return seed
	}
	return results[0].VideoID
}
