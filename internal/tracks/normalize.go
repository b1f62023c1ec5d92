// package tracks turns raw catalog records into [models.Track] values and orders them for selection
package tracks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
)

const (
	// OfficialReleaseType is the record type that earns a song the release bonus.
	OfficialReleaseType = "MUSIC_VIDEO_TYPE_OFFICIAL_RELEASE"

	officialWeight = 10
	releaseWeight  = 5
	radioWeight    = 5
	chartWeight    = 10

	variousArtists = "Various"

	watchURL         = "https://music.youtube.com/watch?v="
	defaultThumbnail = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
	googleCDN        = "googleusercontent.com"
)

type labelRule struct {
	label    models.Label
	keywords []string
	unless   string
}

// labelRules are evaluated in order; a title may match several.
var labelRules = []labelRule{
	{label: models.LabelOfficial, keywords: []string{"official"}},
	{label: models.LabelRemix, keywords: []string{"remix", "re-mix", "rmx"}},
	{label: models.LabelSlowed, keywords: []string{"slowed"}},
	{label: models.LabelLive, keywords: []string{"live"}, unless: "deliver"},
	{label: models.LabelLyrics, keywords: []string{"lyrical", "lyrics"}},
	{label: models.LabelCover, keywords: []string{"cover"}},
	{label: models.LabelMashup, keywords: []string{"mashup"}},
}

// DetectLabels returns the title-derived labels in rule order.
func DetectLabels(title string) []models.Label {
	lowered := strings.ToLower(title)
	labels := []models.Label{}
	for _, rule := range labelRules {
		if rule.unless != "" && strings.Contains(lowered, rule.unless) {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				labels = append(labels, rule.label)
				break
			}
		}
	}
	return labels
}

// Normalize maps one record to a Track.
//
// Records without an id or title are rejected with [shared.ErrMalformedRecord].
func Normalize(rec services.YouTubeTrack, kind models.Kind) (models.Track, error) {
	id := strings.TrimSpace(rec.VideoID)
	title := strings.TrimSpace(rec.Title)
	if id == "" || title == "" {
		return models.Track{}, fmt.Errorf("%w: id=%q title=%q", shared.ErrMalformedRecord, rec.VideoID, rec.Title)
	}

	labels := DetectLabels(title)
	weight := 0
	for _, l := range labels {
		if l == models.LabelOfficial {
			weight += officialWeight
		}
	}
	if kind == models.KindSong && rec.VideoType == OfficialReleaseType {
		weight += releaseWeight
	}

	return models.Track{
		ID:           id,
		Title:        title,
		Artist:       rec.ArtistName(),
		Kind:         kind,
		ThumbnailURL: ResolveThumbnail(id, rec.Images()),
		CanonicalURL: CanonicalURL(id),
		Labels:       labels,
		SortWeight:   weight,
	}, nil
}

// NormalizeAll normalizes a batch like [NormalizeEach], then stable-sorts by weight, highest first.
func NormalizeAll(records []services.YouTubeTrack, kind models.Kind, excludeTitle string) []models.Track {
	out := NormalizeEach(records, kind, excludeTitle)
	SortByWeight(out)
	return out
}

// NormalizeEach normalizes a batch in upstream order, dropping malformed records and titles
// equal to excludeTitle.
func NormalizeEach(records []services.YouTubeTrack, kind models.Kind, excludeTitle string) []models.Track {
	exclude := shared.FoldTitle(excludeTitle)
	out := make([]models.Track, 0, len(records))
	for _, rec := range records {
		t, err := Normalize(rec, kind)
		if err != nil {
			continue
		}
		if exclude != "" && shared.FoldTitle(t.Title) == exclude {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortByWeight orders tracks by descending weight, keeping input order among equals.
func SortByWeight(ts []models.Track) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].SortWeight > ts[j].SortWeight })
}

// NormalizeRadio maps a radio mix record. label is [models.LabelRadioMix] or [models.LabelVideoMix].
func NormalizeRadio(rec services.YouTubeTrack, label models.Label) (models.Track, error) {
	t, err := Normalize(rec, models.KindRadio)
	if err != nil {
		return t, err
	}
	t.Labels = []models.Label{label}
	t.SortWeight = radioWeight
	return t, nil
}

// NormalizeChart maps a chart catalog record tagged with its category.
func NormalizeChart(rec services.YouTubeTrack, category string) (models.Track, error) {
	t, err := Normalize(rec, models.KindChart)
	if err != nil {
		return t, err
	}
	if t.Artist == "" {
		t.Artist = variousArtists
	}
	t.Labels = []models.Label{models.LabelTrending, ChartLabel(category)}
	t.SortWeight = chartWeight
	return t, nil
}

// ChartLabel is the display label for a chart category: "bollywood_2010s" becomes "Bollywood".
func ChartLabel(category string) models.Label {
	family := category
	if i := strings.LastIndexByte(family, '_'); i > 0 && strings.HasSuffix(family, "0s") {
		family = family[:i]
	}
	if family == "" {
		return ""
	}
	return models.Label(strings.ToUpper(family[:1]) + family[1:])
}

// CanonicalURL is the watch URL for id.
func CanonicalURL(id string) string {
	return watchURL + id
}

// ResolveThumbnail picks the largest image and upsizes Google CDN URLs to a 512px render.
//
// With no usable image it falls back to the per-id default thumbnail.
func ResolveThumbnail(id string, images []services.YouTubeImage) string {
	best := ""
	bestArea := -1
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		if area := img.Width * img.Height; area > bestArea {
			best, bestArea = img.URL, area
		}
	}

	if best == "" {
		if id == "" {
			return ""
		}
		return fmt.Sprintf(defaultThumbnail, id)
	}

	if strings.Contains(best, googleCDN) {
		if base, _, ok := strings.Cut(best, "="); ok {
			return base + "=w512-h512-l90-rj"
		}
		if i := strings.LastIndex(best, "-s"); i > 0 {
			return best[:i] + "-s512-c"
		}
	}
	return best
}
