// package lyrics splits lyric text into verses by timing gaps or paragraph breaks
package lyrics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/ytdj/internal/models"
)

const (
	// DefaultGapThreshold is the silence, in seconds, that starts a new verse.
	DefaultGapThreshold = 8.0

	// Marker forces a verse break regardless of timing.
	Marker = "♪"
)

var timestampPattern = regexp.MustCompile(`^\s*\[(\d+):(\d{2})(?:\.(\d{1,3}))?\]`)

// ParseTimestamp extracts the [mm:ss(.fff)] tag that opens line. A tag later in the line
// leaves it untimed.
//
// The fraction is read as digits/10^len, so ".5" and ".500" agree. Seconds are not range
// checked: [00:85.57] yields 85.57. text is the line with the tag removed and trimmed.
func ParseTimestamp(line string) (seconds float64, text string, ok bool) {
	m := timestampPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return 0, strings.TrimSpace(line), false
	}

	minutes, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil {
		return 0, strings.TrimSpace(line), false
	}
	secs, err := strconv.Atoi(line[m[4]:m[5]])
	if err != nil {
		return 0, strings.TrimSpace(line), false
	}

	var fraction float64
	if m[6] >= 0 {
		digits := line[m[6]:m[7]]
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0, strings.TrimSpace(line), false
		}
		fraction = float64(n) / math.Pow10(len(digits))
	}

	seconds = float64(minutes*60+secs) + fraction
	text = strings.TrimSpace(line[m[1]:])
	return seconds, text, true
}

// Segment groups timed lines into verses.
//
// A verse opens on the first timed line, and on any later timed line whose gap to the
// previous timed line is strictly greater than gap or whose text contains [Marker].
// Untimed lines are dropped and do not move the previous timestamp.
func Segment(lines []string, gap float64) []models.Verse {
	verses := []models.Verse{}
	var current *models.Verse
	var body []string
	prev := math.Inf(-1)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(body, "\n")
		verses = append(verses, *current)
	}

	for _, line := range lines {
		at, text, ok := ParseTimestamp(line)
		if !ok {
			continue
		}

		if current == nil || at-prev > gap || strings.Contains(text, Marker) {
			flush()
			current = &models.Verse{
				Index:     len(verses),
				StartTime: round2(at),
				FirstLine: text,
			}
			body = body[:0]
		}

		if text != "" {
			body = append(body, text)
		}
		prev = at
	}

	flush()
	return verses
}

// SegmentParagraphs splits untimed lyrics on blank lines.
//
// Only the first verse gets a start time (0); the rest are [models.UnknownStart].
func SegmentParagraphs(text string) []models.Verse {
	verses := []models.Verse{}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	for _, para := range splitParagraphs(normalized) {
		start := models.UnknownStart
		if len(verses) == 0 {
			start = 0
		}
		first, _, _ := strings.Cut(para, "\n")
		verses = append(verses, models.Verse{
			Index:     len(verses),
			StartTime: start,
			FirstLine: strings.TrimSpace(first),
			Text:      para,
		})
	}

	return verses
}

// SegmentAny prefers timing data and falls back to paragraphs.
//
// rawText is used for the paragraph split when set, otherwise the lines are rejoined.
func SegmentAny(lines []string, rawText string, gap float64) []models.Verse {
	if HasTimestamps(lines) {
		return Segment(lines, gap)
	}
	if rawText == "" {
		rawText = strings.Join(lines, "\n")
	}
	return SegmentParagraphs(rawText)
}

// HasTimestamps reports whether any line carries a timestamp tag.
func HasTimestamps(lines []string) bool {
	for _, line := range lines {
		if timestampPattern.MatchString(line) {
			return true
		}
	}
	return false
}

func splitParagraphs(text string) []string {
	var (
		out   []string
		block []string
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(block) > 0 {
				out = append(out, strings.Join(block, "\n"))
				block = nil
			}
			continue
		}
		block = append(block, strings.TrimSpace(line))
	}
	if len(block) > 0 {
		out = append(out, strings.Join(block, "\n"))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
