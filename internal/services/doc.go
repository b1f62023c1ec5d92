// Package services implements the upstream clients the DJ hub depends on.
//
// # Catalog
//
// [Catalog] is the search and recommendation provider used by the aggregation pipeline.
// [YouTubeService] implements it against the FastAPI proxy (music/) wrapping ytmusicapi:
//   - GET /api/search?q=&filter=songs|videos&limit=
//   - GET /api/watch?videoId=&limit=&radio=
//   - GET /api/songs/{videoId}
//   - GET /api/lyrics/{browseId}
//
// The proxy's image fields come in several shapes; [Thumbnails] flattens all of them.
//
// # Lyrics
//
// [LyricsService] asks the catalog first (watch playlist → lyrics browse id → lyrics) and the
// [LyricsFallback] second. [RapidAPIService] is the fallback, paced by a token bucket of one
// request per configured delay.
//
// # Remote
//
// [APIService] and [RemoteService] talk to a running ytdj server over HTTP and its websocket
// hub. The remote controller TUI and the api CLI commands use them.
//
// # Error Handling
//
// Services wrap sentinels from the shared package:
//   - [shared.ErrUpstreamUnavailable] : proxy or provider failed or answered non-2xx
//   - [shared.ErrTrackNotFound] : proxy returned 404
//   - [shared.ErrMissingCredentials] : RAPIDAPI_KEY is not configured
//   - [shared.ErrLyricsNotFound] : no provider had lyrics
//   - [shared.ErrConnectionLost] : websocket dial, read or write failed
package services
