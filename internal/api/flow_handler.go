package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// RunFlow выполняет поток синхронно и возвращает агрегированный результат.
// POST /api/v1/flows/run
//
// Остановленный поток — это 200 с state=HALTED, а не ошибка HTTP:
// вызывающему нужен результат целиком, включая выполненные этапы.
func (h *Handler) RunFlow(w http.ResponseWriter, r *http.Request) {
	var req RunFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	result, err := h.orch.Execute(r.Context(), req.ToDomain())
	if err != nil {
		// Execute возвращает error только для некорректного запроса.
		BadRequest(w, err.Error())
		return
	}

	Success(w, result)
}

// ListStages возвращает этапы потока в каноническом порядке.
// GET /api/v1/stages
func (h *Handler) ListStages(w http.ResponseWriter, r *http.Request) {
	stages := domain.Stages()
	result := make([]StageInfo, 0, len(stages))
	for _, s := range stages {
		desc, _ := domain.Descriptor(s)
		result = append(result, StageInfo{
			Name:               string(desc.Name),
			Predecessor:        string(desc.Predecessor),
			Required:           desc.Required,
			CheckpointRequired: desc.CheckpointRequired,
			ProducesCheckpoint: desc.ProducesCheckpoint,
		})
	}
	List(w, result, len(result))
}

// ListDesignRuns возвращает последние запуски дизайна из журнала.
// GET /api/v1/designs/{design}/runs
func (h *Handler) ListDesignRuns(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		Unavailable(w, "run history requires the audit ledger (set DB_URL)")
		return
	}

	design := r.PathValue("design")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.ledger.RecentRuns(r.Context(), design, limit)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	List(w, runs, len(runs))
}
