package handler

import (
	"cbrrates/internal/domain"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetDateStatusResponse struct {
	Date   string `json:"date"`
	Loaded bool   `json:"loaded"`
}

func (h *Handler) GetDateStatus(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "date"))
	date, err := domain.ParseDay(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	if h.dates == nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error())
		return
	}

	loaded, err := h.dates.Loaded(r.Context(), date)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		writeError(w, http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error())
		return
	}
	if err != nil {
		msg := "ups, couldn't check date this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetDateStatus", "date": raw}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, GetDateStatusResponse{Date: domain.FormatDay(date), Loaded: loaded})
}
