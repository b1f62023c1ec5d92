package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ytdj/internal/formatter"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/tracks"
)

const (
	DefaultExportWorkers = 3
	MaxExportWorkers     = 6
	DefaultExportRate    = 5.0
)

// ExportOpts contains configuration for chart catalog exports.
type ExportOpts struct {
	Format     string  // json, csv, markdown, txt
	OutputDir  string  // default: charts_export_{epoch}
	NumWorkers int     // default: 3, at most 6
	RateLimit  float64 // cover downloads per second for markdown (default: 5)
}

// CategoryExport is the outcome of exporting one category.
type CategoryExport struct {
	Category string   `json:"category"`
	Tracks   int      `json:"tracks"`
	Files    []string `json:"files"`
	Error    error    `json:"-"`
	Message  string   `json:"error,omitempty"`
}

// ExportResult summarizes a chart catalog export.
type ExportResult struct {
	OutputDirectory string           `json:"output_directory"`
	Format          string           `json:"format"`
	Successful      int              `json:"successful"`
	Failed          int              `json:"failed"`
	Categories      []CategoryExport `json:"categories"`
	ManifestPath    string           `json:"-"`
}

// ExportCharts writes every stored chart category to its own file with a worker pool and
// finishes with export_manifest.json in the output directory.
func (e *ChartsEngine) ExportCharts(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: chart store not initialized", shared.ErrServiceUnavailable)
	}
	if !slices.Contains(formatter.Formats, opts.Format) {
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("charts_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), MaxExportWorkers)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = DefaultExportWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultExportRate
	}

	entries, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: chart catalog is empty", shared.ErrNoCandidates)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lists := groupByCategory(entries)
	categories := make([]string, 0, len(lists))
	for c := range lists {
		categories = append(categories, c)
	}
	slices.Sort(categories)

	result := &ExportResult{OutputDirectory: opts.OutputDir, Format: opts.Format}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string)
	results := make(chan CategoryExport, len(categories))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for category := range jobs {
				results <- e.exportCategory(ctx, limiter, category, lists[category], opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range categories {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.Error != nil {
			res.Message = res.Error.Error()
			result.Failed++
		} else {
			result.Successful++
		}
		result.Categories = append(result.Categories, res)
		sendProgress(progress, exportUpdate(len(result.Categories), len(categories), res))
	}
	slices.SortFunc(result.Categories, func(a, b CategoryExport) int {
		return slices.Index(categories, a.Category) - slices.Index(categories, b.Category)
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifest := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifest); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifest
	return result, nil
}

func (e *ChartsEngine) exportCategory(ctx context.Context, limiter *rate.Limiter, category string, list models.TrackList, opts ExportOpts) CategoryExport {
	res := CategoryExport{Category: category, Tracks: list.Len()}
	heading := string(tracks.ChartLabel(category))

	if opts.Format != formatter.FormatMarkdown {
		path, err := formatter.WriteTrackList(list, opts.Format, opts.OutputDir, category)
		if err != nil {
			res.Error = err
			return res
		}
		res.Files = []string{path}
		return res
	}

	cover := ""
	if list.Len() > 0 && limiter.Wait(ctx) == nil {
		cover = list.Tracks[0].ThumbnailURL
	}
	md, err := formatter.WriteMarkdownExport(ctx, list, heading, filepath.Join(opts.OutputDir, category), cover)
	if err != nil {
		res.Error = err
		return res
	}
	res.Files = md.Files
	return res
}

func groupByCategory(entries []models.ChartEntry) map[string]models.TrackList {
	lists := map[string]models.TrackList{}
	for _, entry := range entries {
		list := lists[entry.Category]
		list.Query = entry.Category
		t := entry.Track
		t.Position = len(list.Tracks)
		list.Tracks = append(list.Tracks, t)
		list.SongCount = len(list.Tracks)
		lists[entry.Category] = list
	}
	return lists
}
