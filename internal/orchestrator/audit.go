package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/events"
)

// Журнал и события — best-effort: их недоступность не останавливает поток.

func (o *Orchestrator) ledgerStart(ctx context.Context, res *domain.FlowResult, sessionID string, logger *slog.Logger) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.StartRun(ctx, res, sessionID); err != nil {
		logger.Warn("ledger: start run failed", "error", err)
	}
}

func (o *Orchestrator) ledgerStage(ctx context.Context, runID uuid.UUID, rp *domain.ResolvedStageParams, sr *domain.StageResult, logger *slog.Logger) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.RecordStage(ctx, runID, rp, sr); err != nil {
		logger.Warn("ledger: record stage failed", "stage", rp.Stage, "error", err)
	}
}

func (o *Orchestrator) ledgerFinish(ctx context.Context, res *domain.FlowResult, logger *slog.Logger) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.FinishRun(ctx, res); err != nil {
		logger.Warn("ledger: finish run failed", "error", err)
	}
}

func (o *Orchestrator) publishStageCompleted(ctx context.Context, runID uuid.UUID, req *domain.FlowRequest, stage domain.Stage, sr *domain.StageResult, logger *slog.Logger) {
	if o.events == nil {
		return
	}
	payload := events.StageCompletedPayload{
		RunID:      runID,
		SessionID:  req.SessionID,
		Design:     req.Design,
		Stage:      stage,
		Status:     string(sr.Status),
		Checkpoint: sr.Checkpoint,
		Detail:     sr.Detail,
	}
	if err := o.events.PublishStageCompleted(ctx, payload); err != nil {
		logger.Warn("events: publish stage completed failed", "stage", stage, "error", err)
	}
}

func (o *Orchestrator) publishFlowFinished(ctx context.Context, res *domain.FlowResult, sessionID string, logger *slog.Logger) {
	if o.events == nil {
		return
	}
	payload := events.FlowFinishedPayload{
		RunID:           res.RunID,
		SessionID:       sessionID,
		Flow:            res.Flow,
		Design:          res.Design,
		State:           res.State,
		FinalCheckpoint: res.FinalCheckpoint,
		StagesRun:       len(res.Stages),
	}
	if res.Halt != nil {
		payload.HaltStage = res.Halt.Stage
		payload.HaltReason = res.Halt.Reason
	}
	if err := o.events.PublishFlowFinished(ctx, payload); err != nil {
		logger.Warn("events: publish flow finished failed", "error", err)
	}
}
