package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytdj/internal/services"
	"github.com/desertthunder/ytdj/internal/shared"
)

// APIClient defines the interface for making API requests to a running server.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// DumpResult is a snapshot of a running server's public state.
type DumpResult struct {
	Health any              `json:"health"`
	State  any              `json:"state,omitempty"`
	Tracks any              `json:"tracks,omitempty"`
	Charts any              `json:"charts,omitempty"`
	Errors []EndpointResult `json:"errors,omitempty"`
}

type endpointOperation struct {
	path    string
	target  *any
	phase   Phase
	message string
}

// Dump fetches health, playback state, the published list and charts from a running server.
//
// Endpoint failures are collected in [DumpResult.Errors]; only a missing client is an error.
func Dump(ctx context.Context, api APIClient, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{}
	endpoints := []endpointOperation{
		{path: "/health", target: &result.Health, phase: FetchHealth, message: "Fetching health status..."},
		{path: "/state/", target: &result.State, phase: FetchState, message: "Fetching playback state..."},
		{path: "/tracks/", target: &result.Tracks, phase: FetchTracks, message: "Fetching published tracks..."},
		{path: "/charts/", target: &result.Charts, phase: FetchCharts, message: "Fetching charts..."},
	}

	for i, endpoint := range endpoints {
		sendProgress(progress, operationUpdate(endpoint, i+1, len(endpoints)))

		resp, err := api.Get(ctx, endpoint.path)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: err.Error()})
		case !resp.OK():
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: fmt.Sprintf("status %d", resp.StatusCode)})
		default:
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
