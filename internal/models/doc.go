// Package models defines the domain entities exchanged between the ytdj packages.
//
//   - [Track] : a normalized recommendation with labels, weight and position
//   - [TrackList] : a published, versioned list split into song and video branches
//   - [PlaybackState] : the "now playing" pointer and master volume owned by the hub
//   - [Verse] : a segment of lyric lines with an optional start time
//   - [ChartEntry] : a chart catalog row persisted by the repositories package
//
// Types here carry no behavior beyond validation and copying helpers.
package models
