package tasks

import (
	"fmt"
	"time"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	BuildCharts Phase = iota
	BuildCollection
	ExportCharts
	FetchHealth
	FetchState
	FetchTracks
	FetchCharts
)

func (p Phase) String() string {
	switch p {
	case BuildCharts:
		return "build_charts"
	case BuildCollection:
		return "build_collection"
	case ExportCharts:
		return "export_charts"
	case FetchHealth:
		return "fetch_health"
	case FetchState:
		return "fetch_state"
	case FetchTracks:
		return "fetch_tracks"
	case FetchCharts:
		return "fetch_charts"
	default:
		return ""
	}
}

func buildStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCharts,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Building %d chart collections...", total),
	}
}

func collectionUpdate(step, total int, res CollectionResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, res.Category, res.Stored)
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Category, res.Error)
	}
	return ProgressUpdate{
		Phase:   BuildCollection,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func buildDoneUpdate(total int, res *BuildResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCharts,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Chart catalog built: %d songs in %s", res.Total, res.Elapsed.Round(time.Millisecond)),
		Data:    res,
	}
}

func exportUpdate(step, total int, res CategoryExport) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, res.Category, len(res.Files))
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Category, res.Error)
	}
	return ProgressUpdate{
		Phase:   ExportCharts,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}
