// package state owns the published track list and the playback state
//
// The aggregation pipeline is the only writer of the track list and the hub is the only
// writer of playback state. Readers always get copies of a fully published value.
package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// Ticket orders aggregation requests by submission.
type Ticket uint64

// Store is the versioned holder of the current [models.TrackList] and [models.PlaybackState].
type Store struct {
	mu sync.RWMutex

	nextTicket Ticket
	lastTicket Ticket
	list       models.TrackList

	playback models.PlaybackState
}

// NewStore creates an empty store with the given master volume.
func NewStore(volume int) *Store {
	return &Store{playback: models.PlaybackState{MasterVolume: clampVolume(volume)}}
}

// Begin issues the ticket a request must present to [Store.Publish].
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicket++
	return s.nextTicket
}

// Publish replaces the current list when ticket is newer than the last accepted one.
//
// Positions are reassigned densely over the list. The accepted list is returned with its
// new version; a stale ticket returns the still-current list and false.
func (s *Store) Publish(ticket Ticket, list models.TrackList) (models.TrackList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket <= s.lastTicket {
		return s.list.Clone(), false
	}

	next := list.Clone()
	for i := range next.Tracks {
		next.Tracks[i].Position = i
	}
	next.Version = s.list.Version + 1

	s.lastTicket = ticket
	s.list = next
	return next.Clone(), true
}

// Latest returns a copy of the current list.
func (s *Store) Latest() models.TrackList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Clone()
}

// TrackAt returns the track at position k of the current list.
func (s *Store) TrackAt(k int) (models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k < 0 || k >= len(s.list.Tracks) {
		return models.Track{}, fmt.Errorf("%w: position %d of %d", shared.ErrTrackNotFound, k, len(s.list.Tracks))
	}
	t := s.list.Tracks[k]
	t.Labels = append([]models.Label(nil), t.Labels...)
	return t, nil
}

// FindByTitle returns the first track whose title equals title case-insensitively,
// else the first whose title contains it.
func (s *Store) FindByTitle(title string) (models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := shared.FoldTitle(title)
	if want == "" {
		return models.Track{}, false
	}
	for _, t := range s.list.Tracks {
		if shared.FoldTitle(t.Title) == want {
			return t, true
		}
	}
	for _, t := range s.list.Tracks {
		if strings.Contains(shared.FoldTitle(t.Title), want) {
			return t, true
		}
	}
	return models.Track{}, false
}

// Playback returns the current playback state.
func (s *Store) Playback() models.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback
}

// SetVolume records a new master volume, clamped to 0..100.
func (s *Store) SetVolume(volume int) models.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.MasterVolume = clampVolume(volume)
	s.playback.Version++
	return s.playback
}

// SetNowPlaying records the cue as the current track.
func (s *Store) SetNowPlaying(cue models.PlaybackCue) models.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.NowPlayingID = cue.VideoID
	s.playback.NowPlayingTitle = cue.Title
	s.playback.StartOffsetSeconds = cue.Timestamp
	s.playback.Version++
	return s.playback
}

// SetStartOffset updates where the current track should start.
func (s *Store) SetStartOffset(seconds int) models.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.StartOffsetSeconds = seconds
	s.playback.Version++
	return s.playback
}

func clampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
