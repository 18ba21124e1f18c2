package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
	"gosynth/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const runLedgerSchema = `
	CREATE TABLE IF NOT EXISTS simulation_runs (
		run_id TEXT PRIMARY KEY,
		seed BIGINT NOT NULL,
		population INTEGER NOT NULL,
		design_type TEXT NOT NULL,
		scoring_mode TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		dead_var_count INTEGER NOT NULL DEFAULT 0,
		weak_effect_count INTEGER NOT NULL DEFAULT 0,
		summary JSONB NOT NULL,
		diagnostics JSONB NOT NULL,
		audit JSONB NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_simulation_runs_design_type ON simulation_runs (design_type);
	CREATE INDEX IF NOT EXISTS idx_simulation_runs_completed_at ON simulation_runs (completed_at DESC);`

// RunLedgerImpl implements RunLedgerPort for PostgreSQL
type RunLedgerImpl struct {
	db *sqlx.DB
}

// NewRunLedger creates a new PostgreSQL run ledger
func NewRunLedger(db *sqlx.DB) *RunLedgerImpl {
	return &RunLedgerImpl{db: db}
}

// EnsureSchema creates the ledger table and indexes if they do not exist
func (r *RunLedgerImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, runLedgerSchema); err != nil {
		return fmt.Errorf("failed to ensure run ledger schema: %w", err)
	}
	return nil
}

// runRow is the database projection of a stored run
type runRow struct {
	RunID           string    `db:"run_id"`
	Seed            int64     `db:"seed"`
	Population      int       `db:"population"`
	DesignType      string    `db:"design_type"`
	ScoringMode     string    `db:"scoring_mode"`
	Fingerprint     string    `db:"fingerprint"`
	DeadVarCount    int       `db:"dead_var_count"`
	WeakEffectCount int       `db:"weak_effect_count"`
	Summary         []byte    `db:"summary"`
	Diagnostics     []byte    `db:"diagnostics"`
	Audit           []byte    `db:"audit"`
	StartedAt       time.Time `db:"started_at"`
	CompletedAt     time.Time `db:"completed_at"`
}

// StoreRun appends a completed run. Replaying an identical run id with an
// equal fingerprint is a no-op; a diverged fingerprint surfaces a
// determinism error.
func (r *RunLedgerImpl) StoreRun(ctx context.Context, result *simulation.RunResult) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	diagnosticsJSON, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}
	auditJSON, err := json.Marshal(result.Audit)
	if err != nil {
		return fmt.Errorf("failed to marshal audit trail: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO simulation_runs (run_id, seed, population, design_type, scoring_mode, fingerprint,
			dead_var_count, weak_effect_count, summary, diagnostics, audit, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, string(result.RunID), result.Seed, result.Population, string(result.DesignType),
		result.ScoringMode, result.Fingerprint.String(), len(result.Summary.DeadVars),
		len(result.Summary.WeakEffects), summaryJSON, diagnosticsJSON, auditJSON,
		result.StartedAt.Time(), result.CompletedAt.Time())

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return r.checkReplay(ctx, result)
		}
		return err
	}

	return nil
}

// checkReplay compares a duplicate write against the stored fingerprint
func (r *RunLedgerImpl) checkReplay(ctx context.Context, result *simulation.RunResult) error {
	var stored string
	err := r.db.GetContext(ctx, &stored, `
		SELECT fingerprint FROM simulation_runs WHERE run_id = $1
	`, string(result.RunID))
	if err != nil {
		return err
	}

	if stored != result.Fingerprint.String() {
		return fmt.Errorf("%w: run %s already stored with fingerprint %s, got %s",
			core.ErrNonDeterministic, result.RunID, stored, result.Fingerprint)
	}
	return nil
}

// GetRun retrieves a stored run by id. Participant-level records are not
// stored in the ledger, so the result carries summary, diagnostics, and
// audit trail only.
func (r *RunLedgerImpl) GetRun(ctx context.Context, runID core.RunID) (*simulation.RunResult, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, seed, population, design_type, scoring_mode, fingerprint,
			dead_var_count, weak_effect_count, summary, diagnostics, audit, started_at, completed_at
		FROM simulation_runs
		WHERE run_id = $1
	`, string(runID))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", string(runID))
	}
	if err != nil {
		return nil, err
	}

	return rowToResult(row)
}

// ListRuns returns stored runs newest first, optionally filtered by design
// type and windowed by limit/offset
func (r *RunLedgerImpl) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunRecord, error) {
	query := `
		SELECT run_id, design_type, population, seed, dead_var_count, weak_effect_count, fingerprint, completed_at
		FROM simulation_runs`

	args := []interface{}{}
	if filters.DesignType != nil {
		query += " WHERE design_type = $1"
		args = append(args, string(*filters.DesignType))
	}
	query += " ORDER BY completed_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ports.RunRecord, 0)
	for rows.Next() {
		var (
			runID           string
			designType      string
			population      int
			seed            int64
			deadVarCount    int
			weakEffectCount int
			fingerprint     string
			completedAt     time.Time
		)
		if err := rows.Scan(&runID, &designType, &population, &seed,
			&deadVarCount, &weakEffectCount, &fingerprint, &completedAt); err != nil {
			return nil, err
		}
		records = append(records, ports.RunRecord{
			RunID:           core.RunID(runID),
			DesignType:      study.DesignType(designType),
			Population:      population,
			Seed:            seed,
			DeadVarCount:    deadVarCount,
			WeakEffectCount: weakEffectCount,
			Fingerprint:     core.Hash(fingerprint),
			CompletedAt:     core.NewTimestamp(completedAt),
		})
	}

	return records, rows.Err()
}

// rowToResult rebuilds a run result from its stored projection
func rowToResult(row runRow) (*simulation.RunResult, error) {
	summary := simulation.NewSummary()
	if err := json.Unmarshal(row.Summary, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary for run %s: %w", row.RunID, err)
	}

	diagnostics := simulation.NewDiagnostics()
	if err := json.Unmarshal(row.Diagnostics, &diagnostics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal diagnostics for run %s: %w", row.RunID, err)
	}

	audit := make([]simulation.AuditEntry, 0)
	if err := json.Unmarshal(row.Audit, &audit); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit trail for run %s: %w", row.RunID, err)
	}

	return &simulation.RunResult{
		RunID:       core.RunID(row.RunID),
		Seed:        row.Seed,
		Population:  row.Population,
		DesignType:  study.DesignType(row.DesignType),
		ScoringMode: row.ScoringMode,
		Diagnostics: diagnostics,
		Summary:     summary,
		Fingerprint: core.Hash(row.Fingerprint),
		Audit:       audit,
		StartedAt:   core.NewTimestamp(row.StartedAt),
		CompletedAt: core.NewTimestamp(row.CompletedAt),
	}, nil
}

// Ensure RunLedgerImpl implements RunLedgerPort
var _ ports.RunLedgerPort = (*RunLedgerImpl)(nil)
