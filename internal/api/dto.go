package api

import (
	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/registry"
)

// RunFlowRequest — тело POST /api/v1/flows/run.
//
// Поле parameters — свободные переопределения для всех этапов потока;
// stage_requirements — переопределения одного конкретного этапа.
type RunFlowRequest struct {
	Flow              string                             `json:"flow"`
	Design            string                             `json:"design"`
	Tech              string                             `json:"tech,omitempty"`
	TopModule         string                             `json:"top_module,omitempty"`
	Strategy          string                             `json:"strategy,omitempty"`
	Parameters        map[string]any                     `json:"parameters,omitempty"`
	StageRequirements map[string]map[string]any          `json:"stage_requirements,omitempty"`
	SessionID         string                             `json:"session_id,omitempty"`
	Force             bool                               `json:"force,omitempty"`
}

// ToDomain преобразует DTO во внутренний запрос потока.
func (r *RunFlowRequest) ToDomain() *domain.FlowRequest {
	req := &domain.FlowRequest{
		Flow:      domain.FlowID(r.Flow),
		Design:    r.Design,
		Tech:      r.Tech,
		TopModule: r.TopModule,
		Strategy:  r.Strategy,
		Overrides: r.Parameters,
		SessionID: r.SessionID,
		Force:     r.Force,
	}

	if len(r.StageRequirements) > 0 {
		req.StageRequirements = make(map[domain.Stage]map[string]any, len(r.StageRequirements))
		for stage, params := range r.StageRequirements {
			// Легаси-имена этапов допустимы и здесь.
			canonical, ok := domain.CanonicalStage(domain.Stage(stage))
			if !ok {
				canonical = domain.Stage(stage)
			}
			req.StageRequirements[canonical] = params
		}
	}

	return req
}

// StageInfo — описание одного этапа для GET /api/v1/stages.
type StageInfo struct {
	Name               string   `json:"name"`
	Predecessor        string   `json:"predecessor,omitempty"`
	Required           []string `json:"required_params"`
	CheckpointRequired bool     `json:"checkpoint_required"`
	ProducesCheckpoint bool     `json:"produces_checkpoint"`
}

// DesignVersionsResponse — версии артефактов одного дизайна.
type DesignVersionsResponse struct {
	Design         string                 `json:"design"`
	Tech           string                 `json:"tech"`
	Synthesis      []registry.VersionInfo `json:"synthesis"`
	Implementation []registry.VersionInfo `json:"implementation"`
}
