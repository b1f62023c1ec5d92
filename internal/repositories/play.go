package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// PlayRepository records announced tracks.
type PlayRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlayRepository creates a new PlayRepository with the given database connection
func NewPlayRepository(db *sql.DB) *PlayRepository {
	return &PlayRepository{db: db, now: time.Now}
}

// Record appends cue to the history.
func (r *PlayRepository) Record(ctx context.Context, cue models.PlaybackCue) error {
	if cue.VideoID == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}

	sequence, err := NextSequence(r.db, "plays")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO plays (id, sequence, video_id, title, start_offset, played_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, shared.GenerateID(), sequence, cue.VideoID, cue.Title, cue.Timestamp, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}
	return nil
}

// Recent returns up to limit plays, newest first.
func (r *PlayRepository) Recent(ctx context.Context, limit int) ([]models.Play, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sequence, video_id, title, start_offset, played_at
		FROM plays
		ORDER BY sequence DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []models.Play
	for rows.Next() {
		var p models.Play
		if err := rows.Scan(&p.ID, &p.Sequence, &p.VideoID, &p.Title, &p.StartOffset, &p.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		plays = append(plays, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}
	return plays, nil
}
