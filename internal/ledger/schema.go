package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — журнал запусков и результатов этапов.
//
// flow_runs хранит по одной строке на запуск маршрута, stage_results —
// по строке на каждый выполненный (или упавший при разрешении) этап.
const schema = `
CREATE TABLE IF NOT EXISTS flow_runs (
	id          UUID PRIMARY KEY,
	flow        TEXT NOT NULL,
	design      TEXT NOT NULL,
	tech        TEXT NOT NULL,
	session_id  TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	halt_stage  TEXT NOT NULL DEFAULT '',
	halt_kind   TEXT NOT NULL DEFAULT '',
	halt_reason TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS stage_results (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES flow_runs(id),
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	checkpoint  TEXT NOT NULL DEFAULT '',
	syn_ver     TEXT NOT NULL DEFAULT '',
	impl_ver    TEXT NOT NULL DEFAULT '',
	params      JSONB NOT NULL DEFAULT '{}',
	detail      TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flow_runs_design ON flow_runs(design, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_stage_results_run ON stage_results(run_id);
`

// EnsureSchema создаёт таблицы журнала, если их ещё нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
