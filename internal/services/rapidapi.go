package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytdj/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultRapidAPIHost = "spotify-web-api3.p.rapidapi.com"
	rapidAPILyricsPath  = "/v1/social/spotify/musixmatchsearchlyrics"
)

// RapidAPIOpts configures [RapidAPIService].
type RapidAPIOpts struct {
	Key     string
	Host    string
	BaseURL string        // defaults to https://{Host}
	Delay   time.Duration // minimum spacing between requests
	Timeout time.Duration
}

// RapidAPIService is the Musixmatch-via-RapidAPI lyrics fallback.
//
// Requests are paced with a token bucket of one request per Delay.
type RapidAPIService struct {
	key        string
	host       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRapidAPIService creates the fallback client. A missing key is reported per request, not here.
func NewRapidAPIService(opts RapidAPIOpts) *RapidAPIService {
	if opts.Host == "" {
		opts.Host = defaultRapidAPIHost
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://" + opts.Host
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &RapidAPIService{
		key:        opts.Key,
		host:       opts.Host,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// SearchLyrics looks lyrics up by title and artist.
//
// Non-2xx answers are returned as-is in [FallbackLyrics.Status]; only transport failures are errors.
func (s *RapidAPIService) SearchLyrics(ctx context.Context, title, artist string) (*FallbackLyrics, error) {
	if s.key == "" {
		return nil, fmt.Errorf("%w: RAPIDAPI_KEY is not set", shared.ErrMissingCredentials)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrMissingArgument)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}

	params := url.Values{}
	params.Set("terms", title)
	params.Set("artist", artist)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+rapidAPILyricsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", s.key)
	req.Header.Set("x-rapidapi-host", s.host)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrUpstreamUnavailable, err)
	}

	out := &FallbackLyrics{Status: resp.StatusCode}
	if json.Valid(body) {
		out.Data = json.RawMessage(body)
	} else {
		quoted, _ := json.Marshal(string(body))
		out.Data = quoted
	}
	return out, nil
}
