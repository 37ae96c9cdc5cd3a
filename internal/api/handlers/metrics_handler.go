package handlers

import (
	"net/http"
	"time"

	"github.com/markdave123-py/Penpal/internal/models"
	"github.com/markdave123-py/Penpal/internal/services"
)

type MetricsHandler struct {
	metrics *services.MetricsService
	loc     *time.Location
	now     func() time.Time
}

func NewMetricsHandler(metrics *services.MetricsService, loc *time.Location) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, loc: loc, now: time.Now}
}

func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	day, err := resolveDay(r, r.URL.Query().Get("today"), h.loc, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	today, _ := time.Parse(models.DateKeyLayout, day)

	snap, err := h.metrics.Snapshot(r.Context(), id, today)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
