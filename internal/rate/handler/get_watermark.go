package handler

import (
	"cbrrates/internal/domain"
	"cbrrates/internal/rate"
	"net/http"
)

type GetWatermarkResponse struct {
	Watermark   string `json:"watermark"`
	Today       string `json:"today"`
	PendingDays int    `json:"pending_days"`
	Sink        string `json:"sink"`
}

// GetWatermark reports what the next incremental run would load.
func (h *Handler) GetWatermark(w http.ResponseWriter, r *http.Request) {
	last := h.watermark.LastLoadedDate(r.Context())
	today := h.watermark.Today()

	writeJSON(w, http.StatusOK, GetWatermarkResponse{
		Watermark:   domain.FormatDay(last),
		Today:       domain.FormatDay(today),
		PendingDays: rate.PlanIncremental(last, today).Len(),
		Sink:        h.sink.SinkName(),
	})
}
