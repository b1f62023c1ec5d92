package lyrics

import (
	"reflect"
	"testing"

	"github.com/desertthunder/ytdj/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	tc := []struct {
		name     string
		line     string
		wantSecs float64
		wantText string
		wantOK   bool
	}{
		{name: "minutes and fraction", line: "[01:02.50]Hello", wantSecs: 62.5, wantText: "Hello", wantOK: true},
		{name: "single fraction digit", line: "[00:10.5] world", wantSecs: 10.5, wantText: "world", wantOK: true},
		{name: "three fraction digits", line: "[00:10.125]x", wantSecs: 10.125, wantText: "x", wantOK: true},
		{name: "no fraction", line: "[02:00]chorus", wantSecs: 120, wantText: "chorus", wantOK: true},
		{name: "seconds above 59 are raw", line: "[00:85.57]C", wantSecs: 85.57, wantText: "C", wantOK: true},
		{name: "leading space", line: "  [00:03.00]x", wantSecs: 3, wantText: "x", wantOK: true},
		{name: "untimed", line: "just words", wantText: "just words"},
		{name: "tag inside the line is untimed", line: "intro words [00:12.00] more", wantText: "intro words [00:12.00] more"},
		{name: "single digit seconds is malformed", line: "[00:5]x", wantText: "[00:5]x"},
		{name: "letters are malformed", line: "[ab:cd]x", wantText: "[ab:cd]x"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			secs, text, ok := ParseTimestamp(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if ok && !approx(secs, tt.wantSecs) {
				t.Errorf("seconds = %v, want %v", secs, tt.wantSecs)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	t.Run("empty input yields empty output", func(t *testing.T) {
		verses := Segment(nil, DefaultGapThreshold)
		if verses == nil || len(verses) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", verses)
		}
	})

	t.Run("gap larger than threshold starts a verse", func(t *testing.T) {
		lines := []string{"[00:33.71]A", "[00:39.47]B", "[00:85.57]C"}
		verses := Segment(lines, 8.0)

		if len(verses) != 2 {
			t.Fatalf("expected 2 verses, got %d", len(verses))
		}
		if verses[0].FirstLine != "A" || verses[0].StartTime != 33.71 {
			t.Errorf("unexpected first verse %+v", verses[0])
		}
		if verses[0].Text != "A\nB" {
			t.Errorf("expected first verse text A\\nB, got %q", verses[0].Text)
		}
		if verses[1].FirstLine != "C" || verses[1].StartTime != 85.57 || verses[1].Index != 1 {
			t.Errorf("unexpected second verse %+v", verses[1])
		}
	})

	t.Run("gap equal to threshold does not start a verse", func(t *testing.T) {
		lines := []string{"[00:10.00]one", "[00:18.00]two"}
		if verses := Segment(lines, 8.0); len(verses) != 1 {
			t.Fatalf("expected 1 verse, got %d", len(verses))
		}

		lines = []string{"[00:10.00]one", "[00:18.01]two"}
		if verses := Segment(lines, 8.0); len(verses) != 2 {
			t.Fatalf("expected 2 verses, got %d", len(verses))
		}
	})

	t.Run("marker forces a break", func(t *testing.T) {
		lines := []string{"[00:01.00]one", "[00:02.00]♪ interlude ♪", "[00:03.00]three"}
		verses := Segment(lines, 8.0)
		if len(verses) != 2 {
			t.Fatalf("expected 2 verses, got %d", len(verses))
		}
		if verses[1].FirstLine != "♪ interlude ♪" {
			t.Errorf("unexpected first line %q", verses[1].FirstLine)
		}
	})

	t.Run("untimed lines neither start verses nor move previous time", func(t *testing.T) {
		lines := []string{"title card", "[00:01.00]one", "[bad]", "spoken", "[00:12.00]two"}
		verses := Segment(lines, 8.0)
		if len(verses) != 2 {
			t.Fatalf("expected 2 verses, got %d", len(verses))
		}
		if verses[0].Text != "one" {
			t.Errorf("untimed lines leaked into text: %q", verses[0].Text)
		}
	})

	t.Run("start time rounds to two decimals", func(t *testing.T) {
		verses := Segment([]string{"[00:01.006]x"}, 8.0)
		if len(verses) != 1 || verses[0].StartTime != 1.01 {
			t.Errorf("expected 1.01, got %+v", verses)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		lines := []string{"[00:01.00]a", "[00:20.00]b", "[00:21.00]c", "[01:00.00]♪"}
		first := Segment(lines, 8.0)
		second := Segment(lines, 8.0)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("expected identical output, got %v and %v", first, second)
		}
	})
}

func TestSegmentParagraphs(t *testing.T) {
	t.Run("splits on blank lines", func(t *testing.T) {
		text := "line one\nline two\n\n\nchorus one\nchorus two\n\noutro"
		verses := SegmentParagraphs(text)

		if len(verses) != 3 {
			t.Fatalf("expected 3 verses, got %d", len(verses))
		}
		if verses[0].StartTime != 0 {
			t.Errorf("first verse should start at 0, got %v", verses[0].StartTime)
		}
		for _, v := range verses[1:] {
			if v.HasStart() {
				t.Errorf("verse %d should have unknown start, got %v", v.Index, v.StartTime)
			}
		}
		if verses[1].FirstLine != "chorus one" || verses[1].Text != "chorus one\nchorus two" {
			t.Errorf("unexpected second verse %+v", verses[1])
		}
		if verses[2].Index != 2 {
			t.Errorf("expected index 2, got %d", verses[2].Index)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if verses := SegmentParagraphs("  \n\n "); len(verses) != 0 {
			t.Errorf("expected no verses, got %d", len(verses))
		}
	})

	t.Run("windows line endings", func(t *testing.T) {
		if verses := SegmentParagraphs("a\r\n\r\nb"); len(verses) != 2 {
			t.Errorf("expected 2 verses, got %d", len(verses))
		}
	})
}

func TestSegmentAny(t *testing.T) {
	t.Run("uses timing when present", func(t *testing.T) {
		verses := SegmentAny([]string{"intro", "[00:01.00]a"}, "", 8.0)
		if len(verses) != 1 || verses[0].StartTime != 1 {
			t.Errorf("expected timed segmentation, got %+v", verses)
		}
	})

	t.Run("falls back to paragraphs of raw text", func(t *testing.T) {
		verses := SegmentAny(nil, "a\n\nb", 8.0)
		if len(verses) != 2 || verses[1].StartTime != models.UnknownStart {
			t.Errorf("expected paragraph segmentation, got %+v", verses)
		}
	})

	t.Run("rejoins lines when raw text is absent", func(t *testing.T) {
		verses := SegmentAny([]string{"a", "", "b"}, "", 8.0)
		if len(verses) != 2 {
			t.Errorf("expected 2 verses, got %d", len(verses))
		}
	})
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
