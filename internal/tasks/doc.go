// Package tasks runs the background jobs of the DJ hub with real-time progress reporting.
//
// # Chart Catalog
//
// [ChartsEngine.Build] fills six [Collections] in parallel:
//   - bollywood_2000s, bollywood_2010s, bollywood_2020s
//   - punjabi, haryanvi, indie_regional
//
// Each collection runs its year-based "top songs" searches through an errgroup capped at
// MaxWorkers. A failed search counts as empty. Collections are stored through a [ChartStore]
// (repositories.ChartRepository in production) as soon as they finish.
//
// [ChartsEngine.GeneratePlaylist] samples a mixed playlist from the stored catalog and
// [ChartsEngine.Charts] splits it into top songs (first 25) and trending. An empty catalog
// serves [FailsafeHits].
//
// # Export
//
// [ChartsEngine.ExportCharts] writes each stored category with a small worker pool, one file
// per category (or a directory with README.md and cover.jpg for markdown), followed by
// export_manifest.json.
//
// # Dump
//
// [Dump] snapshots a running server's /health, /state/, /tracks/ and /charts/ endpoints.
//
// # Progress Reporting
//
// Every operation accepts an optional ProgressUpdate channel. Sends use select with default
// so a slow or absent reader never blocks the job.
package tasks
