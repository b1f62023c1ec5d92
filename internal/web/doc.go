// Package web implements the hub's JSON API.
//
// # Routes
//
//	POST /recommendations/  query, limit, nextPlay, refresh, videoId, maxVol (form or JSON)
//	GET  /tracks/           the published list
//	GET  /track/{idx}/      selected track, verses, lyrics source; cues playback
//	GET  /lyrics/           ?title=&artist=
//	POST /radio/            videoId, limit (default 50)
//	GET  /charts/           ?country=IN
//	GET  /state/            playback state
//	GET  /plays/            recent announcements
//	GET  /health            catalog reachability
//
// refresh takes precedence over nextPlay; neither means search.
//
// # Errors
//
// Failures are written as {"error": "..."} with a status derived from the shared sentinels:
// invalid input 400, nothing found 404, upstream failure 502, missing credentials 500.
package web
