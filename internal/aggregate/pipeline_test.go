package aggregate

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
	tu "github.com/desertthunder/ytdj/internal/testing"
)

func noShuffle(int, func(i, j int)) {}

type fakeAnnouncer struct {
	mu   sync.Mutex
	cues []models.PlaybackCue
}

func (f *fakeAnnouncer) Announce(ctx context.Context, cue models.PlaybackCue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, cue)
}

func (f *fakeAnnouncer) Cues() []models.PlaybackCue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PlaybackCue(nil), f.cues...)
}

func ids(ts []models.Track) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func assertWellFormed(t *testing.T, list *models.TrackList) {
	t.Helper()
	seen := map[string]bool{}
	for i, tr := range list.Tracks {
		if seen[tr.ID] {
			t.Errorf("duplicate id %s in %v", tr.ID, ids(list.Tracks))
		}
		seen[tr.ID] = true
		if tr.Position != i {
			t.Errorf("track %s has position %d, want %d", tr.ID, tr.Position, i)
		}
	}
}

func seededCatalog() *tu.FakeCatalog {
	c := tu.NewFakeCatalog()
	c.SearchResults[services.FilterSongs] = tu.Records("s1", "Song One", "s2", "Song Two")
	c.SearchResults[services.FilterVideos] = tu.Records("v1", "Vid One", "s1", "Song One")
	c.Watch["s1"] = tu.Records("s3", "Three", "s2", "Song Two", "s4", "Four")
	c.Watch["v1"] = tu.Records("v2", "Vid Two", "v1", "Vid One")
	return c
}

func newTestPipeline(c services.Catalog, a Announcer) *Pipeline {
	return NewPipeline(PipelineOpts{
		Catalog:   c,
		Store:     state.NewStore(100),
		Announcer: a,
		Cache:     NewCache(8, time.Minute),
		Shuffle:   noShuffle,
	})
}

func TestAggregateSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("concatenates branches with unique ids", func(t *testing.T) {
		p := newTestPipeline(seededCatalog(), nil)

		list, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		assertWellFormed(t, list)
		if want := []string{"s1", "s2", "s3", "s4", "v1", "v2"}; !reflect.DeepEqual(ids(list.Tracks), want) {
			t.Errorf("got %v, want %v", ids(list.Tracks), want)
		}
		if list.SongCount != 4 || list.Version != 1 || list.Mode != models.ModeSearch {
			t.Errorf("unexpected list metadata %+v", list)
		}
		if got := p.Store().Latest(); got.Version != 1 || got.Len() != 6 {
			t.Errorf("store not updated: %+v", got)
		}
	})

	t.Run("anchor stays among search candidates", func(t *testing.T) {
		p := newTestPipeline(seededCatalog(), nil)

		list, err := p.Aggregate(ctx, Request{Query: "song", AnchorID: "s1", Limit: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		assertWellFormed(t, list)
		if want := []string{"s1", "s2", "s3", "s4"}; !reflect.DeepEqual(ids(list.SongBranch()), want) {
			t.Errorf("got %v, want %v", ids(list.SongBranch()), want)
		}
	})

	t.Run("cache hit makes no upstream calls", func(t *testing.T) {
		c := seededCatalog()
		p := newTestPipeline(c, nil)

		if _, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		before := len(c.Calls())

		list, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if after := len(c.Calls()); after != before {
			t.Errorf("expected no new calls, got %d", after-before)
		}
		if list.Version != 2 || list.Len() != 6 {
			t.Errorf("expected cached list republished as version 2, got %+v", list)
		}
	})

	t.Run("failed branch leaves the other", func(t *testing.T) {
		c := seededCatalog()
		c.SearchErrs[services.FilterVideos] = errors.New("boom")
		p := newTestPipeline(c, nil)

		list, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if list.SongCount != 4 || list.Len() != 4 {
			t.Errorf("expected songs only, got %v", ids(list.Tracks))
		}
	})

	t.Run("failed expansion keeps candidates", func(t *testing.T) {
		c := seededCatalog()
		c.WatchErrs["s1"] = errors.New("boom")
		p := newTestPipeline(c, nil)

		list, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := []string{"s1", "s2"}; !reflect.DeepEqual(ids(list.SongBranch()), want) {
			t.Errorf("got %v, want %v", ids(list.SongBranch()), want)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		p := newTestPipeline(tu.NewFakeCatalog(), nil)
		if _, err := p.Aggregate(ctx, Request{Query: "nothing"}); !errors.Is(err, shared.ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
		if p.Store().Latest().Version != 0 {
			t.Error("empty result must not be published")
		}
	})

	t.Run("invalid requests", func(t *testing.T) {
		p := newTestPipeline(seededCatalog(), nil)
		if _, err := p.Aggregate(ctx, Request{Query: "  "}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := p.Aggregate(ctx, Request{Query: "x", Mode: "shuffle"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown mode, got %v", err)
		}
		if _, err := NewPipeline(PipelineOpts{}).Aggregate(ctx, Request{Query: "x"}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable without catalog, got %v", err)
		}
	})

	t.Run("stale result is discarded", func(t *testing.T) {
		c := seededCatalog()
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		c.OnSearch = func(query, filter string) {
			if query == "slow" {
				once.Do(func() { close(started) })
				<-release
			}
		}
		p := newTestPipeline(c, nil)

		done := make(chan *models.TrackList, 1)
		go func() {
			list, _ := p.Aggregate(ctx, Request{Query: "slow", Limit: 4})
			done <- list
		}()

		<-started
		if _, err := p.Aggregate(ctx, Request{Query: "fast", Limit: 4}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(release)

		slow := <-done
		if slow == nil || slow.Version != 0 {
			t.Errorf("expected unpublished slow result, got %+v", slow)
		}
		if latest := p.Store().Latest(); latest.Query != "fast" || latest.Version != 1 {
			t.Errorf("newer list was replaced: %+v", latest)
		}
	})
}

func TestAggregateSelectNext(t *testing.T) {
	ctx := context.Background()

	t.Run("announces and pins known target", func(t *testing.T) {
		c := seededCatalog()
		a := &fakeAnnouncer{}
		p := newTestPipeline(c, a)
		if _, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var announcedFirst bool
		var mu sync.Mutex
		c.OnSearch = func(string, string) {
			mu.Lock()
			defer mu.Unlock()
			announcedFirst = len(a.Cues()) == 1
		}

		list, err := p.Aggregate(ctx, Request{Query: "song two", Limit: 4, Mode: models.ModeSelectNext})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		assertWellFormed(t, list)
		if list.Tracks[0].ID != "s2" {
			t.Errorf("expected target pinned first, got %v", ids(list.Tracks))
		}
		cues := a.Cues()
		if len(cues) != 1 || cues[0] != (models.PlaybackCue{VideoID: "s2", Title: "Song Two", Timestamp: 20}) {
			t.Errorf("unexpected cues %+v", cues)
		}
		mu.Lock()
		defer mu.Unlock()
		if !announcedFirst {
			t.Error("expected announcement before branch searches")
		}
	})

	t.Run("explicit anchor not in list", func(t *testing.T) {
		a := &fakeAnnouncer{}
		p := newTestPipeline(seededCatalog(), a)

		list, err := p.Aggregate(ctx, Request{Query: "Fresh Pick", AnchorID: "new1", Limit: 4, Mode: models.ModeSelectNext})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if list.Tracks[0].ID != "new1" || list.Tracks[0].Title != "Fresh Pick" {
			t.Errorf("expected anchor pinned, got %+v", list.Tracks[0])
		}
		if cues := a.Cues(); len(cues) != 1 || cues[0].VideoID != "new1" {
			t.Errorf("unexpected cues %+v", cues)
		}
		assertWellFormed(t, list)
	})

	t.Run("unknown title announces nothing", func(t *testing.T) {
		a := &fakeAnnouncer{}
		p := newTestPipeline(seededCatalog(), a)

		list, err := p.Aggregate(ctx, Request{Query: "brand new", Limit: 4, Mode: models.ModeSelectNext})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if list.Len() == 0 {
			t.Fatal("expected a list for the unresolved title")
		}
		if cues := a.Cues(); len(cues) != 0 {
			t.Errorf("expected no announcement, got %+v", cues)
		}
		if p.Store().Playback().NowPlayingID != "" {
			t.Errorf("unexpected now playing %+v", p.Store().Playback())
		}
	})
}

func TestAggregateRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("excludes anchor and never announces", func(t *testing.T) {
		c := seededCatalog()
		a := &fakeAnnouncer{}
		p := newTestPipeline(c, a)
		if _, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		list, err := p.Aggregate(ctx, Request{Limit: 4, Mode: models.ModeRefresh})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, tr := range list.Tracks {
			if tr.ID == "s1" || tr.Title == "Song One" {
				t.Errorf("anchor present after refresh: %v", ids(list.Tracks))
			}
		}
		if list.Query != "Song One" || list.Mode != models.ModeRefresh {
			t.Errorf("unexpected list metadata %+v", list)
		}
		if n := c.CallCount("search:songs:Song One"); n != 1 {
			t.Errorf("expected search on anchor title, got %d calls", n)
		}
		if n := len(a.Cues()); n != 0 {
			t.Errorf("refresh announced %d cues", n)
		}
		assertWellFormed(t, list)
	})

	t.Run("degrades to search without a list", func(t *testing.T) {
		p := newTestPipeline(seededCatalog(), nil)

		list, err := p.Aggregate(ctx, Request{Query: "song", Limit: 4, Mode: models.ModeRefresh})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if list.Mode != models.ModeSearch || list.Len() != 6 {
			t.Errorf("expected search result, got %+v", list)
		}
	})
}

func TestRadio(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves video seed for art tracks", func(t *testing.T) {
		c := tu.NewFakeCatalog()
		song := &services.SongDetails{}
		song.VideoDetails.Title = "Tum Hi Ho"
		song.VideoDetails.MusicVideoType = ATVVideoType
		c.Songs["seed"] = song
		c.SearchResults["Tum Hi Ho video song|"+services.FilterVideos] = tu.Records("vid", "Tum Hi Ho (Official Video)")
		c.Watch["seed|radio"] = tu.Records("a1", "A1", "a2", "A2")
		c.Watch["vid|radio"] = tu.Records("b1", "B1", "a1", "A1")
		p := newTestPipeline(c, nil)

		list, err := p.Radio(ctx, "seed", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if want := []string{"a1", "a2", "b1"}; !reflect.DeepEqual(ids(list.Tracks), want) {
			t.Errorf("got %v, want %v", ids(list.Tracks), want)
		}
		if list.SongCount != 2 || list.Mode != models.ModeRadio {
			t.Errorf("unexpected list metadata %+v", list)
		}
		if !list.Tracks[0].HasLabel(models.LabelRadioMix) || !list.Tracks[2].HasLabel(models.LabelVideoMix) {
			t.Errorf("unexpected labels %+v", list.Tracks)
		}
		if list.Tracks[0].Kind != models.KindRadio || list.Tracks[0].SortWeight != 5 {
			t.Errorf("unexpected radio track %+v", list.Tracks[0])
		}
	})

	t.Run("failed song lookup skips duplicate mix", func(t *testing.T) {
		c := tu.NewFakeCatalog()
		c.Watch["seed|radio"] = tu.Records("a1", "A1")
		p := newTestPipeline(c, nil)

		list, err := p.Radio(ctx, "seed", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if list.Len() != 1 || c.CallCount("watch:") != 1 {
			t.Errorf("expected one mix fetch, got %v and calls %v", ids(list.Tracks), c.Calls())
		}
	})

	t.Run("audio mix does not wait for video seed", func(t *testing.T) {
		c := tu.NewFakeCatalog()
		song := &services.SongDetails{}
		song.VideoDetails.Title = "Slow"
		song.VideoDetails.MusicVideoType = ATVVideoType
		c.Songs["seed"] = song
		c.SearchResults[services.FilterVideos] = tu.Records("vid", "Slow Video")
		c.Watch["seed|radio"] = tu.Records("a1", "A1")
		c.Watch["vid|radio"] = tu.Records("b1", "B1")

		audioDone := make(chan struct{})
		c.OnWatch = func(seed string, radio bool) {
			if seed == "seed" {
				close(audioDone)
			}
		}
		c.OnSearch = func(string, string) {
			<-audioDone
		}
		p := newTestPipeline(c, nil)

		list, err := p.Radio(ctx, "seed", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if list.Len() != 2 {
			t.Errorf("expected both mixes, got %v", ids(list.Tracks))
		}
	})

	t.Run("errors", func(t *testing.T) {
		p := newTestPipeline(tu.NewFakeCatalog(), nil)
		if _, err := p.Radio(ctx, "seed", 10); !errors.Is(err, shared.ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
		if _, err := p.Radio(ctx, "", 10); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("radio mode via Aggregate", func(t *testing.T) {
		c := tu.NewFakeCatalog()
		c.Watch["seed|radio"] = tu.Records("a1", "A1")
		p := newTestPipeline(c, nil)

		list, err := p.Aggregate(ctx, Request{AnchorID: "seed", Mode: models.ModeRadio})
		if err != nil || list.Len() != 1 {
			t.Errorf("expected radio list, got %v, %v", list, err)
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("ClampLimit", func(t *testing.T) {
		for in, want := range map[int]int{-1: 20, 0: 20, 1: 1, 50: 50, 51: 50} {
			if got := ClampLimit(in); got != want {
				t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
			}
		}
	})

	t.Run("CacheKey", func(t *testing.T) {
		if got := CacheKey("masakali", 20, ""); got != "masakali_20" {
			t.Errorf("got %s", got)
		}
		if got := CacheKey("masakali", 20, "abc"); got != "masakali_20_abc" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("Cache copies and purges", func(t *testing.T) {
		c := NewCache(0, 0)
		list := models.TrackList{Tracks: []models.Track{{ID: "a", Labels: []models.Label{models.LabelLive}}}}
		c.Add("k", list)
		list.Tracks[0].Labels[0] = models.LabelCover

		got, ok := c.Get("k")
		if !ok || got.Tracks[0].Labels[0] != models.LabelLive {
			t.Errorf("cache shares memory with caller: %+v", got)
		}
		c.Purge()
		if c.Len() != 0 {
			t.Errorf("expected empty cache, got %d", c.Len())
		}

		var nilCache *Cache
		if _, ok := nilCache.Get("k"); ok || nilCache.Len() != 0 {
			t.Error("nil cache should be empty")
		}
	})
}
