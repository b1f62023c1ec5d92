package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/ytdj/internal/aggregate"
	"github.com/desertthunder/ytdj/internal/formatter"
	"github.com/desertthunder/ytdj/internal/lyrics"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
	"github.com/urfave/cli/v3"
)

// normalizeFormat accepts the short aliases md and text.
func normalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "md":
		return formatter.FormatMarkdown
	case "text":
		return formatter.FormatText
	default:
		return f
	}
}

// slug turns a heading into a file name: lowercase letters, digits and underscores.
func slug(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		case c == ' ' || c == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "tracks"
	}
	return b.String()
}

// Search runs one search aggregation against the catalog proxy and prints the list.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	req := aggregate.Request{Query: query, Limit: cmd.Int("limit"), AnchorID: cmd.String("anchor"), Mode: models.ModeSearch}
	if req.AnchorID != "" && cmd.Bool("next") {
		req.Mode = models.ModeSelectNext
	}

	list, err := r.pipeline(state.NewStore(r.config.Hub.DefaultVolume), nil).Aggregate(ctx, req)
	if err != nil {
		return err
	}
	return r.writeTrackList(*list, cmd.String("format"), cmd.String("output"), query)
}

// Radio builds a radio mix from a seed video id.
func (r *Runner) Radio(ctx context.Context, cmd *cli.Command) error {
	seed := strings.TrimSpace(cmd.StringArg("videoId"))
	if seed == "" {
		return fmt.Errorf("%w: videoId", shared.ErrMissingArgument)
	}

	list, err := r.pipeline(state.NewStore(r.config.Hub.DefaultVolume), nil).Radio(ctx, seed, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.writeTrackList(*list, cmd.String("format"), cmd.String("output"), "Radio "+seed)
}

func (r *Runner) writeTrackList(list models.TrackList, format, dir, heading string) error {
	format = normalizeFormat(format)
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path, err := formatter.WriteTrackList(list, format, dir, slug(heading))
		if err != nil {
			return err
		}
		r.logger.Info("track list written", "path", path, "tracks", list.Len())
		return nil
	}

	out, err := formatter.FormatTrackList(list, format, heading)
	if err != nil {
		return err
	}
	_, err = r.output.Write(append(out, '\n'))
	return err
}

// Lyrics fetches or reads lyrics and prints their verse breakdown.
func (r *Runner) Lyrics(ctx context.Context, cmd *cli.Command) error {
	gap := cmd.Float("gap")
	if gap <= 0 {
		gap = r.config.Lyrics.GapThreshold
	}
	if gap <= 0 {
		gap = lyrics.DefaultGapThreshold
	}

	detail := models.TrackDetail{
		Track:       models.Track{Title: cmd.String("title"), Artist: cmd.String("artist")},
		StartOffset: r.config.Hub.DefaultStartOffset,
	}

	if path := cmd.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read lyrics file: %w", err)
		}
		text := string(data)
		detail.Source = path
		detail.Verses = lyrics.SegmentAny(strings.Split(text, "\n"), text, gap)
	} else {
		q := services.LyricsQuery{
			VideoID:  cmd.String("video-id"),
			BrowseID: cmd.String("browse-id"),
			Title:    detail.Track.Title,
			Artist:   detail.Track.Artist,
		}
		if q.VideoID == "" && q.BrowseID == "" && q.Title == "" {
			return fmt.Errorf("%w: one of --title, --video-id, --browse-id or --file", shared.ErrMissingArgument)
		}
		res, err := r.lyricsService().Fetch(ctx, q)
		if err != nil {
			return err
		}
		detail.Source = res.Source
		detail.Verses = lyrics.SegmentAny(res.Lines, res.Text, gap)
	}

	if len(detail.Verses) > 0 && detail.Verses[0].HasStart() {
		detail.StartOffset = int(detail.Verses[0].StartTime)
	}

	out, err := formatter.FormatVerses(detail, normalizeFormat(cmd.String("format")))
	if err != nil {
		return err
	}
	_, err = r.output.Write(append(out, '\n'))
	return err
}
