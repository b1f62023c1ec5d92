// Package server provides the HTTP router, middleware and server lifecycle for the DJ hub.
//
// # Router
//
// [BasicRouter] registers method patterns ("GET /tracks/") on an [http.ServeMux]. A [Handler]
// owns a group of patterns; the web API and the websocket hub are both Handlers.
//
// [Middleware] added with Use wraps every handler registered after it, first added outermost.
//
// # Middleware
//
//   - [Logging] : one structured line per request
//   - [Recover] : handler panics become 500s
//   - [CORS] : origin allow-list from the server config, preflight answered with 204
//
// The logging recorder forwards Hijack so websocket upgrades work behind it.
//
// # Lifecycle
//
// [Server.Run] serves until its context ends and then shuts down within the configured timeout.
package server
