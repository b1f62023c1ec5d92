package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/tasks"
	"github.com/urfave/cli/v3"
)

// printProgress writes updates until progress is closed, then closes the returned channel.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.BuildCharts, tasks.ExportCharts:
				if update.Step == 0 || update.Step == update.Total {
					r.writePlain("\n%s\n", update.Message)
				} else {
					r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
				}
			case tasks.BuildCollection:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) runBuild(ctx context.Context, engine *tasks.ChartsEngine) (*tasks.BuildResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.printProgress(progress)

	result, err := engine.Build(ctx, progress)
	close(progress)
	<-done
	return result, err
}

// ChartsBuild collects every chart category from the catalog into the database.
func (r *Runner) ChartsBuild(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlain("Building chart catalog from %d collections...\n", len(tasks.Collections))
	result, err := r.runBuild(ctx, r.chartsEngine(db))
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Chart Catalog Built")
	for _, c := range result.Collections {
		status := "ok"
		if c.Error != nil {
			status = c.Error.Error()
		}
		r.writePlain("%-16s found %3d  stored %3d  failed queries %2d  %s\n", c.Category, c.Found, c.Stored, c.Failed, status)
	}
	r.writePlain("Total: %d tracks in %s\n", result.Total, result.Elapsed.Round(time.Millisecond))
	return nil
}

// ChartsExport writes every stored category to disk, building the catalog first when it is empty.
func (r *Runner) ChartsExport(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.chartsEngine(db)
	opts := tasks.ExportOpts{
		Format:     normalizeFormat(cmd.String("format")),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	export := func() (*tasks.ExportResult, error) {
		progress := make(chan tasks.ProgressUpdate, 50)
		done := r.printProgress(progress)
		result, err := engine.ExportCharts(ctx, progress, opts)
		close(progress)
		<-done
		return result, err
	}

	result, err := export()
	if errors.Is(err, shared.ErrNoCandidates) {
		r.logger.Info("chart catalog is empty, building it first")
		if _, err := r.runBuild(ctx, engine); err != nil {
			return err
		}
		result, err = export()
	}
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Chart Export Complete")
	r.writePlain("Output: %s (%s)\n", result.OutputDirectory, result.Format)
	r.writePlain("Categories: %d exported, %d failed\n", result.Successful, result.Failed)
	for _, c := range result.Categories {
		if c.Error != nil {
			r.writePlain("  - %s: %v\n", c.Category, c.Error)
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// ChartsShow prints the charts listing, or a generated playlist with --playlist.
func (r *Runner) ChartsShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.chartsEngine(db)
	if cmd.Bool("build") {
		if _, err := r.runBuild(ctx, engine); err != nil {
			return err
		}
	}

	if size := cmd.Int("playlist"); size > 0 {
		tracks, err := engine.GeneratePlaylist(ctx, size)
		if err != nil {
			return err
		}
		list := models.TrackList{Query: "charts playlist", Mode: models.ModeSearch, Tracks: tracks, SongCount: len(tracks)}
		return r.writeTrackList(list, cmd.String("format"), "", "Charts Playlist")
	}

	country := cmd.String("country")
	if country == "" {
		country = r.config.Charts.Country
	}
	charts, err := engine.Charts(ctx, country)
	if err != nil {
		return fmt.Errorf("failed to load charts: %w", err)
	}
	return r.writeJSON(charts, true)
}
