package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/ytdj/internal/aggregate"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// recommendationInput is the body of POST /recommendations/, sent as a form or as JSON.
type recommendationInput struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	NextPlay bool   `json:"nextPlay"`
	Refresh  bool   `json:"refresh"`
	VideoID  string `json:"videoId"`
	MaxVol   int    `json:"maxVol"`
}

// request maps the input flags to an aggregation mode. refresh wins over nextPlay.
func (in recommendationInput) request() aggregate.Request {
	req := aggregate.Request{Query: in.Query, Limit: in.Limit, Mode: models.ModeSearch, AnchorID: in.VideoID}
	switch {
	case in.Refresh:
		req.Mode = models.ModeRefresh
	case in.NextPlay:
		req.Mode = models.ModeSelectNext
	}
	return req
}

func parseRecommendation(r *http.Request) (recommendationInput, error) {
	var in recommendationInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
		}
		var err error
		if in.Limit, err = formInt(r.Form, "limit", 0); err != nil {
			return in, err
		}
		if in.MaxVol, err = formInt(r.Form, "maxVol", 0); err != nil {
			return in, err
		}
		in.Query = r.Form.Get("query")
		in.VideoID = r.Form.Get("videoId")
		in.NextPlay = formBool(r.Form, "nextPlay")
		in.Refresh = formBool(r.Form, "refresh")
	}

	in.Query = strings.TrimSpace(in.Query)
	in.VideoID = strings.TrimSpace(in.VideoID)
	in.Limit = aggregate.ClampLimit(in.Limit)
	in.MaxVol = clampMaxVol(in.MaxVol)

	if in.Query == "" && !in.Refresh && !(in.NextPlay && in.VideoID != "") {
		return in, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	return in, nil
}

func clampMaxVol(v int) int {
	switch {
	case v <= 0 || v > DefaultMaxVolume:
		return DefaultMaxVolume
	default:
		return v
	}
}

// formInt reads an integer field, returning def when it is absent.
func formInt(values url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shared.ErrInvalidArgument, key, raw)
	}
	return n, nil
}

func formBool(values url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(values.Get(key))) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps sentinel errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNoCandidates),
		errors.Is(err, shared.ErrTrackNotFound),
		errors.Is(err, shared.ErrLyricsNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
