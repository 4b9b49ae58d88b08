package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
	"github.com/Duke-CEI-Center/AutoEDA/internal/events"
	"github.com/Duke-CEI-Center/AutoEDA/internal/ledger"
	"github.com/Duke-CEI-Center/AutoEDA/internal/resolver"
	"github.com/Duke-CEI-Center/AutoEDA/internal/session"
	"github.com/Duke-CEI-Center/AutoEDA/internal/stageclient"
	"github.com/Duke-CEI-Center/AutoEDA/internal/telemetry"
)

// Orchestrator выполняет потоки физического дизайна.
//
// Один запрос — одно синхронное выполнение: этапы идут строго по
// порядку, первый сбой останавливает поток, оставшиеся этапы не
// вызываются. Результат возвращается вызывающему целиком.
type Orchestrator struct {
	resolver *resolver.Resolver
	client   *stageclient.Client
	store    *session.Store

	// Опциональные зависимости: nil — выключено.
	ledger *ledger.Ledger
	events *events.Publisher

	logger *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	Resolver *resolver.Resolver
	Client   *stageclient.Client
	Store    *session.Store

	// Ledger — аудитный журнал в PostgreSQL (nil — без журнала).
	Ledger *ledger.Ledger

	// Events — публикация событий в RabbitMQ (nil — без событий).
	Events *events.Publisher

	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		resolver: cfg.Resolver,
		client:   cfg.Client,
		store:    cfg.Store,
		ledger:   cfg.Ledger,
		events:   cfg.Events,
		logger:   logger,
	}
}

// Execute выполняет поток и возвращает агрегированный результат.
//
// Ошибка возвращается только для некорректного запроса; любой сбой
// выполнения представлен в FlowResult как HALTED с причиной.
func (o *Orchestrator) Execute(ctx context.Context, req *domain.FlowRequest) (*domain.FlowResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	stages, err := domain.ExpandFlow(req.Flow)
	if err != nil {
		return nil, err
	}

	tech := req.Tech
	if tech == "" {
		tech = domain.DefaultTech
	}

	result := &domain.FlowResult{
		RunID:      uuid.New(),
		Flow:       req.Flow,
		Design:     req.Design,
		Tech:       tech,
		State:      domain.FlowStatePending,
		Advisories: resolver.Advisories(req),
		StartedAt:  time.Now(),
	}

	logger := telemetry.WithRunID(o.logger, result.RunID.String())
	if req.SessionID != "" {
		logger = telemetry.WithSessionID(logger, req.SessionID)
	}

	telemetry.FlowsStarted.WithLabelValues(string(req.Flow)).Inc()
	logger.Info("flow started",
		"flow", req.Flow,
		"design", req.Design,
		"stages", len(stages),
	)

	var sess *session.Record
	if req.SessionID != "" {
		sess = o.store.Get(req.SessionID)
	}

	o.ledgerStart(ctx, result, req.SessionID, logger)

	o.run(ctx, req, sess, stages, result, logger)

	result.FinishedAt = time.Now()

	telemetry.FlowsFinished.WithLabelValues(string(req.Flow), string(result.State)).Inc()
	logger.Info("flow finished",
		"state", result.State,
		"stages_run", len(result.Stages),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	o.ledgerFinish(ctx, result, logger)
	o.publishFlowFinished(ctx, result, req.SessionID, logger)

	return result, nil
}

// run прогоняет этапы по порядку до завершения или первого сбоя.
func (o *Orchestrator) run(ctx context.Context, req *domain.FlowRequest, sess *session.Record, stages []domain.StageDescriptor, result *domain.FlowResult, logger *slog.Logger) {
	var up resolver.Upstream

	for _, desc := range stages {
		stageLogger := telemetry.WithStage(logger, string(desc.Name))

		result.State = domain.FlowStateResolving
		rp, err := o.resolver.Resolve(desc, req, sess, up)
		if err != nil {
			stageLogger.Warn("resolution failed", "error", err)
			result.State = domain.FlowStateHalted
			result.Halt = &domain.HaltInfo{
				Stage:  desc.Name,
				Kind:   resolver.HaltKind(err),
				Reason: err.Error(),
			}
			return
		}

		result.State = domain.FlowStateDispatching
		stageLogger.Info("dispatching stage", "syn_ver", rp.SynVer, "impl_ver", rp.ImplVer)

		res := o.client.Invoke(ctx, desc.Name, rp.Params)

		outcome := domain.StageOutcome{Stage: desc.Name, Params: rp.Params, Result: res}
		result.Stages = append(result.Stages, outcome)

		if sess != nil {
			if res.OK() {
				sess.RecordStageSuccess(req.Flow, req.Design, desc.Name, rp.Params, res)
			} else {
				sess.RecordStageFailure(req.Flow, req.Design, desc.Name, rp.Params, res)
			}
		}

		o.ledgerStage(ctx, result.RunID, rp, res, logger)
		o.publishStageCompleted(ctx, result.RunID, req, desc.Name, res, logger)

		if !res.OK() {
			stageLogger.Warn("stage failed", "detail", res.Detail)
			result.State = domain.FlowStateHalted
			result.Halt = &domain.HaltInfo{
				Stage:  desc.Name,
				Kind:   domain.HaltStageError,
				Reason: res.Detail,
			}
			return
		}

		stageLogger.Info("stage completed", "checkpoint", res.Checkpoint)

		// Курсор для следующего этапа: чекпоинт и известные версии.
		up.Checkpoint = res.Checkpoint
		if res.SynVer != "" {
			up.SynVer = res.SynVer
		} else if rp.SynVer != "" {
			up.SynVer = rp.SynVer
		}
		if rp.ImplVer != "" {
			up.ImplVer = rp.ImplVer
		}

		if res.Checkpoint != "" {
			result.FinalCheckpoint = res.Checkpoint
		}
	}

	result.State = domain.FlowStateCompleted
}
