// Package repositories implements SQLite persistence for the background-built data of the hub.
//
// Key Implementations:
//   - [ChartRepository] : chart catalog rows grouped by collection (bollywood_2010s, punjabi, ...)
//   - [PlayRepository] : history of announced "now playing" cues
//
// Rows carry a per-table sequence from [NextSequence], used for stable ordering.
// Schemas come from the embedded migrations in the shared package.
package repositories
