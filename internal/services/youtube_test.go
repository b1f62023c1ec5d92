package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/ytdj/internal/shared"
)

func newProxy(t *testing.T, handler http.HandlerFunc) *YouTubeService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewYouTubeService(server.URL).WithTimeout(2 * time.Second)
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService(""); svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			if svc := NewYouTubeService("http://localhost:9000/"); svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trimmed baseURL, got %s", svc.baseURL)
			}
		})

		t.Run("Name", func(t *testing.T) {
			if name := NewYouTubeService("").Name(); name != "YouTube Music" {
				t.Errorf("expected name to be 'YouTube Music', got %s", name)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("sends filter and limit", func(t *testing.T) {
			svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" {
					t.Errorf("expected /api/search, got %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("q") != "masakali" || q.Get("filter") != FilterSongs || q.Get("limit") != "3" {
					t.Errorf("unexpected query %v", q)
				}
				json.NewEncoder(w).Encode([]map[string]any{
					{"videoId": "a", "title": "A", "artists": []map[string]string{{"name": "Rahman"}}},
					{"videoId": "b", "title": "B"},
					{"videoId": "c", "title": "C"},
					{"videoId": "d", "title": "D"},
				})
			})

			results, err := svc.Search(ctx, "masakali", FilterSongs, 3)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 3 {
				t.Fatalf("expected results trimmed to 3, got %d", len(results))
			}
			if results[0].ArtistName() != "Rahman" || results[1].ArtistName() != "" {
				t.Errorf("unexpected artists %+v", results)
			}
		})

		t.Run("maps upstream failures", func(t *testing.T) {
			svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"detail": "ytmusicapi exploded"})
			})

			_, err := svc.Search(ctx, "x", FilterVideos, 3)
			if !errors.Is(err, shared.ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})

		t.Run("connection refused", func(t *testing.T) {
			svc := NewYouTubeService("http://127.0.0.1:1").WithTimeout(time.Second)
			if _, err := svc.Search(ctx, "x", "", 0); !errors.Is(err, shared.ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})
	})

	t.Run("WatchPlaylist", func(t *testing.T) {
		svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/api/watch" || q.Get("videoId") != "seed" {
				t.Errorf("unexpected request %s", r.URL)
			}
			resp := map[string]any{
				"tracks": []map[string]any{{"videoId": "n1", "title": "Next"}},
				"lyrics": "MPLYt_abc",
			}
			if q.Get("radio") == "true" {
				resp["tracks"] = []map[string]any{{"videoId": "r1", "title": "Radio"}}
			}
			json.NewEncoder(w).Encode(resp)
		})

		playlist, err := svc.WatchPlaylist(ctx, "seed", 10, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlist.Tracks) != 1 || playlist.Tracks[0].VideoID != "n1" || playlist.Lyrics != "MPLYt_abc" {
			t.Errorf("unexpected playlist %+v", playlist)
		}

		radio, err := svc.WatchPlaylist(ctx, "seed", 10, true)
		if err != nil || radio.Tracks[0].VideoID != "r1" {
			t.Errorf("expected radio mix, got %+v (%v)", radio, err)
		}

		if _, err := svc.WatchPlaylist(ctx, "", 10, false); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Song", func(t *testing.T) {
		svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/songs/missing" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"videoDetails": map[string]string{"videoId": "abc", "title": "Tum Hi Ho", "musicVideoType": "MUSIC_VIDEO_TYPE_ATV"},
			})
		})

		song, err := svc.Song(ctx, "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if song.VideoDetails.Title != "Tum Hi Ho" || song.VideoDetails.MusicVideoType != "MUSIC_VIDEO_TYPE_ATV" {
			t.Errorf("unexpected song %+v", song)
		}

		if _, err := svc.Song(ctx, "missing"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Lyrics", func(t *testing.T) {
		t.Run("plain text", func(t *testing.T) {
			svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/lyrics/MPLYt_abc" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{"lyrics": "one\ntwo\n\nthree", "source": "LyricFind"})
			})

			lyrics, err := svc.Lyrics(ctx, "MPLYt_abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if lyrics.Text() != "one\ntwo\n\nthree" {
				t.Errorf("unexpected text %q", lyrics.Text())
			}
			if want := []string{"one", "two", "", "three"}; !reflect.DeepEqual(lyrics.Lines(), want) {
				t.Errorf("got %q, want %q", lyrics.Lines(), want)
			}
		})

		t.Run("timed lines render as LRC", func(t *testing.T) {
			svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"lyrics":        []map[string]any{{"text": "hello", "start_time": 65430}, {"text": "again", "start_time": 1000}},
					"hasTimestamps": true,
				})
			})

			lyrics, err := svc.Lyrics(ctx, "id")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if want := []string{"[01:05.43]hello", "[00:01.00]again"}; !reflect.DeepEqual(lyrics.Lines(), want) {
				t.Errorf("got %q, want %q", lyrics.Lines(), want)
			}
			if lyrics.Text() != "" {
				t.Errorf("expected no plain text, got %q", lyrics.Text())
			}
		})
	})

	t.Run("Health", func(t *testing.T) {
		svc := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				w.WriteHeader(http.StatusNotFound)
			}
		})
		if err := svc.Health(ctx); err != nil {
			t.Errorf("expected healthy proxy, got %v", err)
		}
	})
}

func TestThumbnails(t *testing.T) {
	tc := []struct {
		name string
		raw  string
		want int
	}{
		{"list", `[{"url":"a","width":1,"height":1},{"url":"b","width":2,"height":2}]`, 2},
		{"nested list", `[[{"url":"a"}],[{"url":"b"},{"url":"c"}]]`, 3},
		{"single object", `{"url":"a","width":60,"height":60}`, 1},
		{"wrapped", `{"thumbnails":[{"url":"a"},{"url":"b"}]}`, 2},
		{"null", `null`, 0},
		{"garbage", `42`, 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var rec struct {
				Thumbnails Thumbnails `json:"thumbnails"`
			}
			if err := json.Unmarshal([]byte(`{"thumbnails":`+tt.raw+`}`), &rec); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(rec.Thumbnails) != tt.want {
				t.Errorf("expected %d images, got %d", tt.want, len(rec.Thumbnails))
			}
		})
	}

	t.Run("Images merges both fields", func(t *testing.T) {
		track := YouTubeTrack{Thumbnails: Thumbnails{{URL: "a"}}, Thumbnail: Thumbnails{{URL: "b"}}}
		if got := track.Images(); len(got) != 2 {
			t.Errorf("expected 2 images, got %d", len(got))
		}
	})
}

func TestFallbackLyricsLines(t *testing.T) {
	tc := []struct {
		name string
		raw  string
		want []string
	}{
		{"string list", `["[00:01.00]a","[00:02.00]b"]`, []string{"[00:01.00]a", "[00:02.00]b"}},
		{"string", `"a\nb"`, []string{"a", "b"}},
		{"object with lines", `{"lines":["x"]}`, []string{"x"}},
		{"object with lyrics", `{"lyrics":"y\nz"}`, []string{"y", "z"}},
		{"empty", ``, nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := FallbackLyrics{Status: 200, Data: json.RawMessage(tt.raw)}
			if got := f.Lines(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if (FallbackLyrics{Status: 404}).OK() {
		t.Error("404 should not be OK")
	}
}
