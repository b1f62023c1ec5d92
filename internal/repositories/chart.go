package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/tracks"
)

const chartColumns = `id, sequence, video_id, category, era, year_range, title, artist, thumbnail, url, sort_weight`

// ChartRepository stores chart catalog entries.
type ChartRepository struct {
	db *sql.DB
}

// NewChartRepository creates a new ChartRepository with the given database connection
func NewChartRepository(db *sql.DB) *ChartRepository {
	return &ChartRepository{db: db}
}

// ReplaceCategory swaps every entry of category for entries in one transaction.
//
// Entries repeating a video id within the category are skipped. Returns the number stored.
func (r *ChartRepository) ReplaceCategory(ctx context.Context, category string, entries []models.ChartEntry) (int, error) {
	if strings.TrimSpace(category) == "" {
		return 0, fmt.Errorf("%w: category", shared.ErrMissingArgument)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chart_tracks WHERE category = ?`, category); err != nil {
		return 0, fmt.Errorf("failed to clear category %s: %w", category, err)
	}

	query := `
		INSERT OR IGNORE INTO chart_tracks (` + chartColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stored := 0
	for _, e := range entries {
		if err := e.Track.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed: %w", err)
		}

		sequence, err := nextSequenceTx(tx, "chart_tracks")
		if err != nil {
			return 0, fmt.Errorf("failed to generate sequence: %w", err)
		}

		result, err := tx.ExecContext(ctx, query,
			shared.GenerateID(),
			sequence,
			e.ID,
			category,
			e.Era,
			e.YearRange,
			e.Title,
			e.Artist,
			e.ThumbnailURL,
			e.CanonicalURL,
			e.SortWeight,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chart track: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			stored++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chart category: %w", err)
	}
	return stored, nil
}

// ListByCategory returns the entries of category in insertion order.
func (r *ChartRepository) ListByCategory(ctx context.Context, category string) ([]models.ChartEntry, error) {
	return r.query(ctx, `SELECT `+chartColumns+` FROM chart_tracks WHERE category = ? ORDER BY sequence ASC`, category)
}

// List returns every entry in insertion order.
func (r *ChartRepository) List(ctx context.Context) ([]models.ChartEntry, error) {
	return r.query(ctx, `SELECT `+chartColumns+` FROM chart_tracks ORDER BY sequence ASC`)
}

// Count returns the number of stored entries.
func (r *ChartRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chart_tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chart tracks: %w", err)
	}
	return n, nil
}

// Categories returns the entry count of each stored category.
func (r *ChartRepository) Categories(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM chart_tracks GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out[category] = n
	}
	return out, rows.Err()
}

func (r *ChartRepository) query(ctx context.Context, query string, args ...any) ([]models.ChartEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chart tracks: %w", err)
	}
	defer rows.Close()

	var entries []models.ChartEntry
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chart tracks: %w", err)
	}
	return entries, nil
}

func (r *ChartRepository) scanRow(rows *sql.Rows) (models.ChartEntry, error) {
	var (
		e                                  models.ChartEntry
		id                                 string
		sequence                           int
		era, yearRange, artist, thumb, url sql.NullString
	)

	err := rows.Scan(&id, &sequence, &e.ID, &e.Category, &era, &yearRange, &e.Title, &artist, &thumb, &url, &e.SortWeight)
	if err != nil {
		return e, fmt.Errorf("failed to scan chart track: %w", err)
	}

	e.Era = era.String
	e.YearRange = yearRange.String
	e.Artist = artist.String
	e.ThumbnailURL = thumb.String
	e.CanonicalURL = url.String
	e.Kind = models.KindChart
	e.Labels = []models.Label{models.LabelTrending, tracks.ChartLabel(e.Category)}
	return e, nil
}
