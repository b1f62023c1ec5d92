// package tasks runs the long-lived background jobs of the hub: building the chart catalog,
// exporting it and snapshotting a running server.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/tracks"
)

const (
	DefaultMaxWorkers   = 10
	DefaultPlaylistSize = 50
	DefaultCountry      = "IN"

	topSongsCount = 25
)

// Query is one catalog search contributing to a collection.
type Query struct {
	Text  string
	Limit int
}

// Collection is a chart category and the searches that fill it.
type Collection struct {
	Category  string
	Era       string
	YearRange string
	Queries   []Query
}

// Collection categories.
const (
	Bollywood2000s = "bollywood_2000s"
	Bollywood2010s = "bollywood_2010s"
	Bollywood2020s = "bollywood_2020s"
	Punjabi        = "punjabi"
	Haryanvi       = "haryanvi"
	IndieRegional  = "indie_regional"
)

var bollywoodEras = []string{Bollywood2000s, Bollywood2010s, Bollywood2020s}

// Collections is the chart catalog layout, built from year-based "top songs" queries.
var Collections = []Collection{
	{Category: Bollywood2000s, Era: "2000s", YearRange: "2000-2009", Queries: []Query{
		{"top bollywood songs 2000", 5}, {"best hindi songs 2001", 5}, {"superhit bollywood songs 2002", 5},
		{"top hindi songs 2003", 5}, {"best bollywood hits 2004", 5}, {"top bollywood songs 2005", 5},
		{"best hindi songs 2006", 5}, {"superhit bollywood songs 2007", 5}, {"top hindi songs 2008", 5},
		{"best bollywood hits 2009", 5}, {"bollywood romantic songs 2000s", 4}, {"bollywood dance songs 2000-2009", 4},
		{"hindi party songs 2000s decade", 4},
	}},
	{Category: Bollywood2010s, Era: "2010s", YearRange: "2010-2019", Queries: []Query{
		{"top bollywood songs 2010", 5}, {"best hindi songs 2011", 5}, {"superhit bollywood songs 2012", 5},
		{"top hindi songs 2013", 5}, {"best bollywood hits 2014", 5}, {"top bollywood songs 2015", 5},
		{"best hindi songs 2016", 5}, {"superhit bollywood songs 2017", 5}, {"top hindi songs 2018", 5},
		{"best bollywood hits 2019", 5}, {"bollywood romantic songs 2010s", 4}, {"bollywood dance songs 2010-2019", 4},
		{"hindi party songs 2010s decade", 4}, {"bollywood wedding songs 2010s", 4},
	}},
	{Category: Bollywood2020s, Era: "2020s", YearRange: "2020-2025", Queries: []Query{
		{"top bollywood songs 2020", 5}, {"best hindi songs 2021", 5}, {"superhit bollywood songs 2022", 5},
		{"top hindi songs 2023", 5}, {"best bollywood hits 2024", 5}, {"top bollywood songs 2025", 5},
		{"bollywood romantic songs 2020s", 4}, {"bollywood dance songs 2020-2025", 4}, {"hindi party songs 2020s", 4},
		{"bollywood trending songs 2024", 4}, {"latest bollywood hits 2025", 4},
	}},
	{Category: Punjabi, Era: "multi", YearRange: "2000-2025", Queries: []Query{
		{"top punjabi songs 2015", 3}, {"best punjabi songs 2016", 3}, {"superhit punjabi songs 2017", 3},
		{"top punjabi songs 2018", 3}, {"best punjabi hits 2019", 3}, {"top punjabi songs 2020", 3},
		{"best punjabi songs 2021", 3}, {"superhit punjabi songs 2022", 3}, {"top punjabi songs 2023", 3},
		{"best punjabi hits 2024", 3}, {"top punjabi songs 2025", 3}, {"punjabi party songs latest", 3},
		{"punjabi romantic songs best", 3}, {"punjabi bhangra songs top", 3},
	}},
	{Category: Haryanvi, Era: "multi", YearRange: "2015-2025", Queries: []Query{
		{"top haryanvi songs 2020", 3}, {"best haryanvi songs 2021", 3}, {"superhit haryanvi songs 2022", 3},
		{"top haryanvi songs 2023", 3}, {"best haryanvi hits 2024", 3}, {"haryanvi dance songs latest", 2},
		{"haryanvi dj songs best", 2}, {"haryanvi bass songs top", 2},
	}},
	{Category: IndieRegional, Era: "multi", YearRange: "2010-2025", Queries: []Query{
		{"top indian indie songs 2020", 3}, {"best indian indie songs 2021", 3}, {"top indian indie songs 2022", 3},
		{"best indian indie songs 2023", 3}, {"top indian indie songs 2024", 3}, {"indian indie pop songs best", 2},
		{"indian indie rock songs top", 2}, {"indian electronic music best", 2}, {"top tamil songs 2023", 2},
		{"best tamil songs 2024", 2}, {"top telugu songs 2023", 2}, {"best telugu songs 2024", 2},
		{"indian hip hop songs best", 2}, {"indian rap songs top 2024", 2},
	}},
}

// FailsafeHits is served when the chart catalog has nothing to offer.
var FailsafeHits = []models.Track{
	failsafe("k4yXQkGDbLY", "Shape of You", "Ed Sheeran"),
	failsafe("JGwWNGJdvx8", "Despacito", "Luis Fonsi"),
	failsafe("OPf0YbXqDm0", "Uptown Funk", "Mark Ronson"),
	failsafe("09R8_2nJtjg", "Sugar", "Maroon 5"),
}

func failsafe(id, title, artist string) models.Track {
	return models.Track{
		ID:           id,
		Title:        title,
		Artist:       artist,
		Kind:         models.KindChart,
		ThumbnailURL: tracks.ResolveThumbnail(id, nil),
		CanonicalURL: tracks.CanonicalURL(id),
		Labels:       []models.Label{models.LabelHit},
		SortWeight:   10,
	}
}

// ChartStore persists chart collections.
type ChartStore interface {
	ReplaceCategory(ctx context.Context, category string, entries []models.ChartEntry) (int, error)
	List(ctx context.Context) ([]models.ChartEntry, error)
}

// CollectionResult is the outcome of building one collection.
type CollectionResult struct {
	Category string
	Found    int
	Stored   int
	Failed   int // queries that returned an error
	Error    error
}

// BuildResult summarizes a full catalog build.
type BuildResult struct {
	Collections []CollectionResult
	Total       int
	Elapsed     time.Duration
}

// ChartsOpts configures a [ChartsEngine].
type ChartsOpts struct {
	Catalog      services.Catalog
	Store        ChartStore
	Logger       *log.Logger
	MaxWorkers   int
	PlaylistSize int

	// Shuffle permutes n elements. Defaults to math/rand/v2.
	Shuffle func(n int, swap func(i, j int))
}

// ChartsEngine builds the chart catalog and serves charts playlists from it.
type ChartsEngine struct {
	catalog      services.Catalog
	store        ChartStore
	logger       *log.Logger
	workers      int
	playlistSize int
	shuffle      func(n int, swap func(i, j int))

	mu       sync.Mutex
	building bool
	built    time.Time
}

// NewChartsEngine creates a ChartsEngine, filling in defaults.
func NewChartsEngine(opts ChartsOpts) *ChartsEngine {
	e := &ChartsEngine{
		catalog:      opts.Catalog,
		store:        opts.Store,
		logger:       opts.Logger,
		workers:      opts.MaxWorkers,
		playlistSize: opts.PlaylistSize,
		shuffle:      opts.Shuffle,
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(nil)
	}
	e.logger = shared.WithLogger(e.logger, "component", "charts")
	if e.workers <= 0 {
		e.workers = DefaultMaxWorkers
	}
	if e.playlistSize <= 0 {
		e.playlistSize = DefaultPlaylistSize
	}
	if e.shuffle == nil {
		e.shuffle = rand.Shuffle
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BuiltAt returns when the last build finished, or the zero time.
func (e *ChartsEngine) BuiltAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.built
}

// Build fills every collection in parallel and stores each one as it completes.
//
// Failed searches count as empty. A collection that fails to store is reported in its result;
// the other collections still complete.
func (e *ChartsEngine) Build(ctx context.Context, progress chan<- ProgressUpdate) (*BuildResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: chart store not initialized", shared.ErrServiceUnavailable)
	}

	e.mu.Lock()
	if e.building {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: chart build already running", shared.ErrServiceUnavailable)
	}
	e.building = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.building = false
		e.mu.Unlock()
	}()

	start := time.Now()
	total := len(Collections)
	results := make([]CollectionResult, total)
	var done atomic.Int32

	sendProgress(progress, buildStartedUpdate(total))

	var g errgroup.Group
	for i, c := range Collections {
		g.Go(func() error {
			results[i] = e.buildCollection(ctx, c)
			sendProgress(progress, collectionUpdate(int(done.Add(1)), total, results[i]))
			return nil
		})
	}
	g.Wait()

	result := &BuildResult{Collections: results, Elapsed: time.Since(start)}
	for _, r := range results {
		result.Total += r.Stored
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.mu.Lock()
	e.built = time.Now()
	e.mu.Unlock()

	sendProgress(progress, buildDoneUpdate(total, result))
	e.logger.Info("chart catalog built", "songs", result.Total, "elapsed", result.Elapsed.Round(time.Millisecond))
	return result, nil
}

func (e *ChartsEngine) buildCollection(ctx context.Context, c Collection) CollectionResult {
	res := CollectionResult{Category: c.Category}
	batches := make([][]services.YouTubeTrack, len(c.Queries))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, q := range c.Queries {
		g.Go(func() error {
			records, err := e.catalog.Search(gctx, q.Text, services.FilterSongs, q.Limit)
			if err != nil {
				failed.Add(1)
				e.logger.Warn("chart query failed", "category", c.Category, "query", q.Text, "err", err)
				return nil
			}
			batches[i] = records
			return nil
		})
	}
	g.Wait()
	res.Failed = int(failed.Load())

	var entries []models.ChartEntry
	for _, batch := range batches {
		for _, rec := range batch {
			t, err := tracks.NormalizeChart(rec, c.Category)
			if err != nil {
				continue
			}
			entries = append(entries, models.ChartEntry{Track: t, Category: c.Category, Era: c.Era, YearRange: c.YearRange})
		}
	}
	res.Found = len(entries)

	if ctx.Err() != nil {
		res.Error = ctx.Err()
		return res
	}

	stored, err := e.store.ReplaceCategory(ctx, c.Category, entries)
	if err != nil {
		res.Error = err
		e.logger.Error("failed to store chart collection", "category", c.Category, "err", err)
		return res
	}
	res.Stored = stored
	return res
}

// GeneratePlaylist samples a mixed playlist of up to total chart tracks.
//
// The mix is 65% Bollywood (balanced across eras, topped up from any era), 15% Punjabi,
// 5% Haryanvi and 15% indie/regional, shuffled and trimmed to total.
func (e *ChartsEngine) GeneratePlaylist(ctx context.Context, total int) ([]models.Track, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: chart store not initialized", shared.ErrServiceUnavailable)
	}
	if total <= 0 {
		total = e.playlistSize
	}

	entries, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := map[string][]models.Track{}
	for _, entry := range entries {
		byCategory[entry.Category] = append(byCategory[entry.Category], entry.Track)
	}

	bollywoodCount := int(float64(total) * 0.65)
	perEra := bollywoodCount / len(bollywoodEras)

	var (
		playlist []models.Track
		picked   = map[string]bool{}
		pool     []models.Track
	)
	take := func(from []models.Track, n int) {
		for _, t := range e.sample(from, n) {
			picked[t.ID] = true
			playlist = append(playlist, t)
		}
	}

	for _, era := range bollywoodEras {
		take(byCategory[era], perEra)
		pool = append(pool, byCategory[era]...)
	}
	if remaining := bollywoodCount - len(playlist); remaining > 0 {
		available := slices.DeleteFunc(slices.Clone(pool), func(t models.Track) bool { return picked[t.ID] })
		take(available, remaining)
	}

	take(byCategory[Punjabi], int(float64(total)*0.15))
	take(byCategory[Haryanvi], int(float64(total)*0.05))
	take(byCategory[IndieRegional], int(float64(total)*0.15))

	e.shuffle(len(playlist), func(i, j int) { playlist[i], playlist[j] = playlist[j], playlist[i] })
	if len(playlist) > total {
		playlist = playlist[:total]
	}
	return playlist, nil
}

// sample returns up to n tracks of from in random order without modifying from.
func (e *ChartsEngine) sample(from []models.Track, n int) []models.Track {
	if n <= 0 || len(from) == 0 {
		return nil
	}
	out := slices.Clone(from)
	e.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:min(n, len(out))]
}

// Charts returns a generated playlist split into top songs and trending.
//
// When the catalog is empty or unreadable both lists carry [FailsafeHits].
func (e *ChartsEngine) Charts(ctx context.Context, country string) (models.Charts, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = DefaultCountry
	}
	if len(country) != 2 {
		return models.Charts{}, fmt.Errorf("%w: country must be a two-letter code, got %q", shared.ErrInvalidInput, country)
	}

	charts := models.Charts{Country: country, TopVideos: []models.Track{}}

	playlist, err := e.GeneratePlaylist(ctx, e.playlistSize)
	if err != nil || len(playlist) == 0 {
		if err != nil {
			e.logger.Warn("chart playlist unavailable, using failsafe hits", "err", err)
		}
		charts.TopSongs = positioned(FailsafeHits)
		charts.Trending = positioned(FailsafeHits)
		return charts, nil
	}

	split := min(topSongsCount, len(playlist))
	charts.TopSongs = positioned(playlist[:split])
	charts.Trending = positioned(playlist[split:])
	return charts, nil
}

func positioned(in []models.Track) []models.Track {
	out := make([]models.Track, len(in))
	for i, t := range in {
		t.Labels = slices.Clone(t.Labels)
		t.Position = i
		out[i] = t
	}
	return out
}
