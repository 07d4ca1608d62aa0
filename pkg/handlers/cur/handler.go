package cur

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/de-tools/cur-atlas/pkg/adapters"
	"github.com/de-tools/cur-atlas/pkg/services/cost"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	dateLayout      = "2006-01-02"
	defaultFromDate = "2023-01-01"
)

// Handler translates query outcomes into transport responses: a non-empty
// result responds 200, an empty one 404, a query failure 500. The three
// outcomes are never collapsed.
type Handler struct {
	executor *cost.Executor
	enricher *cost.Enricher
}

func NewHandler(executor *cost.Executor, enricher *cost.Enricher) *Handler {
	return &Handler{executor: executor, enricher: enricher}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.executor.Healthy(r.Context()) {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) GetAllRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.executor.AllRows(ctx)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to query rows")
		return
	}
	if len(rows) == 0 {
		writeError(w, r, http.StatusNotFound, "no data found")
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapLineItemsStoreToApi(rows))
}

func (h *Handler) GetRowsByRegion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "regionCode")

	rows, err := h.executor.RowsByRegion(ctx, region)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to query rows for region "+region)
		return
	}
	if len(rows) == 0 {
		writeError(w, r, http.StatusNotFound, "no data found for region "+region)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapLineItemsStoreToApi(rows))
}

func (h *Handler) Get30DayCosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "regionCode")

	costs, err := h.executor.Cost30Days(ctx, region)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to query 30-day costs for region "+region)
		return
	}
	if len(costs) == 0 {
		writeError(w, r, http.StatusNotFound, "no cost data found for region "+region)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapResourceCostsStoreToApi(costs))
}

func (h *Handler) GetTotalCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "regionCode")

	from, until, ok := h.dateWindow(w, r)
	if !ok {
		return
	}

	costs, err := h.executor.TotalCostBetween(ctx, region, from, until)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to query total cost for region "+region)
		return
	}
	if len(costs) == 0 {
		writeError(w, r, http.StatusNotFound, "no cost data found for region "+region)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapResourceCostsStoreToApi(costs))
}

func (h *Handler) GetCostSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region := chi.URLParam(r, "regionCode")

	from, until, ok := h.dateWindow(w, r)
	if !ok {
		return
	}

	summary, err := h.executor.CostSummaryBetween(ctx, region, from, until)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to query cost summary for region "+region)
		return
	}
	if summary.RowCount == 0 {
		writeError(w, r, http.StatusNotFound, "no cost summary data found for region "+region)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapCostSummaryStoreToApi(*summary))
}

func (h *Handler) GetResourceCostDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records := h.enricher.EnrichAll(ctx)
	if len(records) == 0 {
		writeError(w, r, http.StatusNotFound, "no cost/discount data found")
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapResourceCostDiscountsStoreToApi(records))
}

// dateWindow reads the optional from/until query parameters. Defaults are
// 2023-01-01 and today. A malformed date responds 400 and returns ok=false.
func (h *Handler) dateWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	fromParam := r.URL.Query().Get("from")
	if fromParam == "" {
		fromParam = defaultFromDate
	}
	untilParam := r.URL.Query().Get("until")
	if untilParam == "" {
		untilParam = time.Now().Format(dateLayout)
	}

	from, err := time.Parse(dateLayout, fromParam)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid 'from' date, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	until, err := time.Parse(dateLayout, untilParam)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid 'until' date, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, until, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}
