// package formatter renders track lists and verse breakdowns as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// Extension returns the file extension written for format.
func Extension(format string) string {
	if format == FormatMarkdown {
		return ".md"
	}
	return "." + format
}

// TrackListToCSV renders list with columns: Position, ID, Title, Artist, Type, Labels, URL
func TrackListToCSV(list models.TrackList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Type", "Labels", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range list.Tracks {
		record := []string{
			strconv.Itoa(track.Position),
			track.ID,
			track.Title,
			track.Artist,
			string(track.Kind),
			joinLabels(track.Labels, ";"),
			track.CanonicalURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TrackListToMarkdown renders list under heading with one section per branch and an optional cover image.
func TrackListToMarkdown(list models.TrackList, heading, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	if heading == "" {
		heading = list.Query
	}
	fmt.Fprintf(&buf, "# %s\n\n", heading)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if list.Mode != "" {
		fmt.Fprintf(&buf, "**Mode**: %s\n", list.Mode)
	}
	if list.Version > 0 {
		fmt.Fprintf(&buf, "**Version**: %d\n", list.Version)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", list.Len())

	sections := []struct {
		title  string
		tracks []models.Track
	}{
		{branchTitle(list.Mode, true), list.SongBranch()},
		{branchTitle(list.Mode, false), list.VideoBranch()},
	}
	for _, s := range sections {
		if len(s.tracks) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "## %s\n\n", s.title)
		for _, track := range s.tracks {
			fmt.Fprintf(&buf, "%d. [%s](%s)%s%s\n", track.Position+1, track.Title, track.CanonicalURL, artistPart(track.Artist), labelPart(track.Labels))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// TrackListToText renders list as numbered "Artist - Title" lines.
func TrackListToText(list models.TrackList) ([]byte, error) {
	var buf bytes.Buffer

	if list.Query != "" {
		fmt.Fprintf(&buf, "Query: %s\n", list.Query)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", list.Len())

	for i, track := range list.Tracks {
		if track.Artist == "" {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, track.Title)
			continue
		}
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	return buf.Bytes(), nil
}

// FormatTrackList dispatches to the renderer for format.
func FormatTrackList(list models.TrackList, format, heading string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return shared.MarshalJSON(list, true)
	case FormatCSV:
		return TrackListToCSV(list)
	case FormatMarkdown:
		return TrackListToMarkdown(list, heading, "")
	case FormatText:
		return TrackListToText(list)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// VersesToText renders a verse breakdown with one "[m:ss] first line" header per verse.
func VersesToText(detail models.TrackDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s%s\n", detail.Track.Title, artistPart(detail.Track.Artist))
	if detail.Source != "" {
		fmt.Fprintf(&buf, "Source: %s\n", detail.Source)
	}
	fmt.Fprintf(&buf, "Start: %s\n", shared.FormatSeconds(float64(detail.StartOffset)))

	for _, v := range detail.Verses {
		fmt.Fprintf(&buf, "\n[%s] %s\n", shared.FormatSeconds(v.StartTime), v.FirstLine)
		for line := range strings.SplitSeq(v.Text, "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.Bytes(), nil
}

// VersesToMarkdown renders a verse breakdown with one section per verse.
func VersesToMarkdown(detail models.TrackDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", detail.Track.Title)
	if detail.Track.Artist != "" {
		fmt.Fprintf(&buf, "**Artist**: %s\n", detail.Track.Artist)
	}
	if detail.Source != "" {
		fmt.Fprintf(&buf, "**Source**: %s\n", detail.Source)
	}
	fmt.Fprintf(&buf, "**Verses**: %d\n\n", len(detail.Verses))

	for _, v := range detail.Verses {
		fmt.Fprintf(&buf, "## %d. %s (%s)\n\n", v.Index+1, v.FirstLine, shared.FormatSeconds(v.StartTime))
		for line := range strings.SplitSeq(v.Text, "\n") {
			fmt.Fprintf(&buf, "> %s\n", line)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// FormatVerses dispatches to the verse renderer for format. CSV is not supported.
func FormatVerses(detail models.TrackDetail, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return shared.MarshalJSON(detail, true)
	case FormatMarkdown:
		return VersesToMarkdown(detail)
	case FormatText:
		return VersesToText(detail)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// WriteTrackList writes list to dir/name with the extension for format and returns the path.
func WriteTrackList(list models.TrackList, format, dir, name string) (string, error) {
	data, err := FormatTrackList(list, format, name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name+Extension(format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes list to {dir}/README.md, with {dir}/cover.jpg when imageURL downloads.
//
// A failed cover download is logged and the export continues without it.
func WriteMarkdownExport(ctx context.Context, list models.TrackList, heading, dir, imageURL string) (*MarkdownExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir}

	var cover string
	if imageURL != "" {
		data, err := DownloadImage(ctx, nil, imageURL)
		if err != nil {
			shared.NewLogger(nil).Warn("failed to download cover image", "url", imageURL, "err", err)
		} else {
			path := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				shared.NewLogger(nil).Warn("failed to save cover image", "path", path, "err", err)
			} else {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	md, err := TrackListToMarkdown(list, heading, cover)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func branchTitle(mode models.Mode, first bool) string {
	switch {
	case mode == models.ModeRadio && first:
		return "Radio Mix"
	case mode == models.ModeRadio:
		return "Video Mix"
	case first:
		return "Songs"
	default:
		return "Videos"
	}
}

func artistPart(artist string) string {
	if artist == "" {
		return ""
	}
	return " - " + artist
}

func labelPart(labels []models.Label) string {
	if len(labels) == 0 {
		return ""
	}
	return " `" + joinLabels(labels, ", ") + "`"
}

func joinLabels(labels []models.Label, sep string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, sep)
}
