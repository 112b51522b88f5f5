package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type WatermarkProvider interface {
	LastLoadedDate(ctx context.Context) time.Time
	Today() time.Time
}

// DateStatusProvider answers domain.ErrStoreUnavailable while no relational store is live.
type DateStatusProvider interface {
	Loaded(ctx context.Context, date time.Time) (bool, error)
}

type SinkProvider interface {
	SinkName() string
}

// Handler serves read-only ingestion status. dates may be nil when no relational store is configured.
type Handler struct {
	watermark WatermarkProvider
	dates     DateStatusProvider
	sink      SinkProvider
}

func NewStatusHandler(watermark WatermarkProvider, dates DateStatusProvider, sink SinkProvider) *Handler {
	return &Handler{watermark: watermark, dates: dates, sink: sink}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{Error: errorMsg})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
