package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// Ledger — журнал запусков маршрутов в PostgreSQL.
//
// Журнал аудитный: оркестратор пишет в него, но решения на его основе
// не принимает. Все методы best-effort с точки зрения вызывающего.
type Ledger struct {
	pool *pgxpool.Pool
}

// New создаёт Ledger поверх пула соединений.
func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// StartRun фиксирует начало запуска маршрута.
func (l *Ledger) StartRun(ctx context.Context, res *domain.FlowResult, sessionID string) error {
	query := `
		INSERT INTO flow_runs (id, flow, design, tech, session_id, state, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := l.pool.Exec(ctx, query,
		res.RunID,
		string(res.Flow),
		res.Design,
		res.Tech,
		sessionID,
		string(res.State),
		res.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flow run: %w", err)
	}
	return nil
}

// RecordStage фиксирует результат одного этапа.
func (l *Ledger) RecordStage(ctx context.Context, runID uuid.UUID, rp *domain.ResolvedStageParams, res *domain.StageResult) error {
	params, err := json.Marshal(rp.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	query := `
		INSERT INTO stage_results (run_id, stage, status, checkpoint, syn_ver, impl_ver, params, detail, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = l.pool.Exec(ctx, query,
		runID,
		string(rp.Stage),
		string(res.Status),
		res.Checkpoint,
		rp.SynVer,
		rp.ImplVer,
		params,
		res.Detail,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert stage result: %w", err)
	}
	return nil
}

// FinishRun фиксирует завершение запуска: итоговое состояние и причину останова.
func (l *Ledger) FinishRun(ctx context.Context, res *domain.FlowResult) error {
	haltStage, haltKind, haltReason := "", "", ""
	if res.Halt != nil {
		haltStage = string(res.Halt.Stage)
		haltKind = string(res.Halt.Kind)
		haltReason = res.Halt.Reason
	}

	query := `
		UPDATE flow_runs
		SET state = $2, halt_stage = $3, halt_kind = $4, halt_reason = $5, finished_at = $6
		WHERE id = $1
	`
	_, err := l.pool.Exec(ctx, query,
		res.RunID,
		string(res.State),
		haltStage,
		haltKind,
		haltReason,
		res.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update flow run: %w", err)
	}
	return nil
}

// RunSummary — строка журнала для выборки последних запусков.
type RunSummary struct {
	RunID      uuid.UUID  `json:"run_id"`
	Flow       string     `json:"flow"`
	Design     string     `json:"design"`
	Tech       string     `json:"tech"`
	SessionID  string     `json:"session_id,omitempty"`
	State      string     `json:"state"`
	HaltStage  string     `json:"halt_stage,omitempty"`
	HaltReason string     `json:"halt_reason,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RecentRuns возвращает последние запуски для дизайна (новые первыми).
func (l *Ledger) RecentRuns(ctx context.Context, design string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, flow, design, tech, session_id, state, halt_stage, halt_reason, started_at, finished_at
		FROM flow_runs
		WHERE design = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := l.pool.Query(ctx, query, design, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.RunID,
			&r.Flow,
			&r.Design,
			&r.Tech,
			&r.SessionID,
			&r.State,
			&r.HaltStage,
			&r.HaltReason,
			&r.StartedAt,
			&r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
