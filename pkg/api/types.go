package api

// API request/response types for REST endpoints and WebSocket messages

import (
	"time"

	"github.com/priyam-gsc/gscbt/pkg/app"
	"github.com/priyam-gsc/gscbt/pkg/series"
	"github.com/priyam-gsc/gscbt/pkg/storage"
)

// SubmitRunRequest executes a backtest: input bars, orders and scalar
// parameters. Omitted parameters fall back to server config defaults.
type SubmitRunRequest struct {
	Bars   []series.Bar      `json:"bars"`
	Orders []app.OrderSpec   `json:"orders"`
	Params storage.RunParams `json:"params"`
}

// RunInfo is the REST view of a stored run's metadata.
type RunInfo struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Params    storage.RunParams  `json:"params"`
	Summary   storage.RunSummary `json:"summary"`
}

func runInfo(r *storage.Run) RunInfo {
	return RunInfo{ID: r.ID, CreatedAt: r.CreatedAt, Params: r.Params, Summary: r.Summary}
}

// RunTableResponse carries a run's full augmented table.
type RunTableResponse struct {
	ID   string       `json:"id"`
	Rows []series.Row `json:"rows"`
}

// WSSubscribeRequest is the client-to-server subscription message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSRunEvent is broadcast on the "runs" channel when a run completes.
type WSRunEvent struct {
	Channel string  `json:"channel"`
	Event   string  `json:"event"` // "run_completed"
	Run     RunInfo `json:"run"`
}

type errorResponse struct {
	Error string `json:"error"`
}
