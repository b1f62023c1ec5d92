package tracks

import (
	"math/rand/v2"
	"strings"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// Variant selects how the anchor is treated by [Reorder].
type Variant int

const (
	// Pin puts the anchor first (play next).
	Pin Variant = iota
	// Exclude drops the anchor entirely (refresh).
	Exclude
)

func (v Variant) String() string {
	switch v {
	case Pin:
		return "pin"
	case Exclude:
		return "exclude"
	default:
		return ""
	}
}

// Shuffler randomizes n elements through swap, with the contract of [rand.Shuffle].
type Shuffler func(n int, swap func(i, j int))

// DefaultShuffler uses the global generator.
var DefaultShuffler Shuffler = rand.Shuffle

// Reorder applies the selection policy to one branch.
//
// The anchor is found by anchorID, else by the first title equal to or containing query.
// With [Pin] and no anchor found, the first track stands in for it. The rest is split into
// tracks whose title contains query and those that don't, each shuffled, and emitted as
// [anchor] + non-matches + matches.
func Reorder(ts []models.Track, anchorID, query string, variant Variant, shuffle Shuffler) []models.Track {
	if shuffle == nil {
		shuffle = DefaultShuffler
	}

	rest := append([]models.Track(nil), ts...)
	q := shared.FoldTitle(query)

	idx := findAnchor(rest, anchorID, q)
	if idx < 0 && variant == Pin && len(rest) > 0 {
		idx = 0
	}

	var anchor *models.Track
	if idx >= 0 {
		a := rest[idx]
		anchor = &a
		rest = append(rest[:idx], rest[idx+1:]...)
	}

	var matches, others []models.Track
	for _, t := range rest {
		if anchor != nil && t.ID == anchor.ID {
			continue
		}
		if q != "" && strings.Contains(shared.FoldTitle(t.Title), q) {
			matches = append(matches, t)
		} else {
			others = append(others, t)
		}
	}

	shuffle(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
	shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })

	out := make([]models.Track, 0, len(ts))
	if anchor != nil && variant == Pin {
		out = append(out, *anchor)
	}
	out = append(out, others...)
	return append(out, matches...)
}

func findAnchor(ts []models.Track, anchorID, query string) int {
	if anchorID != "" {
		for i, t := range ts {
			if t.ID == anchorID {
				return i
			}
		}
	}
	if query == "" {
		return -1
	}
	for i, t := range ts {
		title := shared.FoldTitle(t.Title)
		if title == query || strings.Contains(title, query) {
			return i
		}
	}
	return -1
}

// WithoutID drops every track with id.
func WithoutID(ts []models.Track, id string) []models.Track {
	if id == "" {
		return ts
	}
	out := ts[:0:0]
	for _, t := range ts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
