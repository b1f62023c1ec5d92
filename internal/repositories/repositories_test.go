package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func entry(id, title, category string) models.ChartEntry {
	return models.ChartEntry{
		Track:    models.Track{ID: id, Title: title, Artist: "Artist " + id, Kind: models.KindChart, SortWeight: 10},
		Category: category,
		Era:      "2010s",
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "plays")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestChartRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplaceCategory and ListByCategory", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := NewChartRepository(db)

		entries := []models.ChartEntry{
			entry("a", "Tum Hi Ho", "bollywood_2010s"),
			entry("b", "Kesariya", "bollywood_2010s"),
			entry("a", "Tum Hi Ho (dup)", "bollywood_2010s"),
		}
		stored, err := repo.ReplaceCategory(ctx, "bollywood_2010s", entries)
		if err != nil {
			t.Fatalf("failed to replace category: %v", err)
		}
		if stored != 2 {
			t.Errorf("expected 2 stored, got %d", stored)
		}

		got, err := repo.ListByCategory(ctx, "bollywood_2010s")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
			t.Fatalf("unexpected entries %+v", got)
		}
		if got[0].Era != "2010s" || got[0].Artist != "Artist a" || got[0].Kind != models.KindChart {
			t.Errorf("unexpected entry fields %+v", got[0])
		}
		if !got[0].HasLabel(models.LabelTrending) || !got[0].HasLabel("Bollywood") {
			t.Errorf("expected chart labels, got %v", got[0].Labels)
		}
	})

	t.Run("ReplaceCategory replaces only its category", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := NewChartRepository(db)

		if _, err := repo.ReplaceCategory(ctx, "punjabi", []models.ChartEntry{entry("p1", "Brown Munde", "punjabi")}); err != nil {
			t.Fatalf("failed: %v", err)
		}
		if _, err := repo.ReplaceCategory(ctx, "haryanvi", []models.ChartEntry{entry("h1", "52 Gaj Ka Daman", "haryanvi")}); err != nil {
			t.Fatalf("failed: %v", err)
		}
		if _, err := repo.ReplaceCategory(ctx, "punjabi", []models.ChartEntry{entry("p2", "Lover", "punjabi"), entry("p3", "Softly", "punjabi")}); err != nil {
			t.Fatalf("failed: %v", err)
		}

		count, err := repo.Count(ctx)
		if err != nil || count != 3 {
			t.Errorf("expected 3 entries, got %d (%v)", count, err)
		}

		cats, err := repo.Categories(ctx)
		if err != nil {
			t.Fatalf("failed: %v", err)
		}
		if cats["punjabi"] != 2 || cats["haryanvi"] != 1 {
			t.Errorf("unexpected categories %v", cats)
		}

		all, err := repo.List(ctx)
		if err != nil || len(all) != 3 || all[0].ID != "h1" {
			t.Errorf("expected insertion order, got %+v (%v)", all, err)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := NewChartRepository(db)

		if _, err := repo.ReplaceCategory(ctx, "", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		bad := []models.ChartEntry{entry("ok", "Fine", "indie"), {Category: "indie"}}
		if _, err := repo.ReplaceCategory(ctx, "indie", bad); err == nil {
			t.Error("expected validation error")
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Errorf("failed replace should roll back, found %d rows", n)
		}

		db.Close()
		if _, err := repo.List(ctx); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.Count(ctx); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestPlayRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Record and Recent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := NewPlayRepository(db)
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		tick := 0
		repo.now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}

		for _, cue := range []models.PlaybackCue{
			{VideoID: "a", Title: "First", Timestamp: 20},
			{VideoID: "b", Title: "Second", Timestamp: 12},
			{VideoID: "c", Title: "Third", Timestamp: 0},
		} {
			if err := repo.Record(ctx, cue); err != nil {
				t.Fatalf("failed to record: %v", err)
			}
		}

		plays, err := repo.Recent(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(plays) != 2 || plays[0].VideoID != "c" || plays[1].VideoID != "b" {
			t.Fatalf("expected newest first, got %+v", plays)
		}
		if plays[1].StartOffset != 12 || plays[1].Sequence != 2 {
			t.Errorf("unexpected play %+v", plays[1])
		}
		if !plays[0].PlayedAt.Equal(base.Add(3 * time.Minute)) {
			t.Errorf("unexpected played_at %v", plays[0].PlayedAt)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		repo := NewPlayRepository(db)

		if err := repo.Record(ctx, models.PlaybackCue{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		db.Close()
		if err := repo.Record(ctx, models.PlaybackCue{VideoID: "x"}); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.Recent(ctx, 0); err == nil {
			t.Error("expected error on closed database")
		}
	})
}
