package memory

import (
	"context"
	"fmt"
	"sync"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/ports"
)

// Adapter implements RunLedgerPort with in-memory storage. It is the default
// ledger when no database is configured and the fixture ledger in tests.
type Adapter struct {
	runs  map[core.RunID]*simulation.RunResult
	order []core.RunID
	mu    sync.RWMutex
}

// NewAdapter creates an empty in-memory run ledger
func NewAdapter() *Adapter {
	return &Adapter{
		runs: make(map[core.RunID]*simulation.RunResult),
	}
}

// StoreRun appends a completed run. Re-storing the same run is a no-op when
// the fingerprints match; a mismatch means the run replayed differently.
func (a *Adapter) StoreRun(ctx context.Context, result *simulation.RunResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.runs[result.RunID]; ok {
		if existing.Fingerprint.Equals(result.Fingerprint) {
			return nil
		}
		return fmt.Errorf("%w: run %s already stored with fingerprint %s, got %s",
			core.ErrNonDeterministic, result.RunID, existing.Fingerprint, result.Fingerprint)
	}

	a.runs[result.RunID] = result
	a.order = append(a.order, result.RunID)
	return nil
}

// GetRun returns a stored run by id
func (a *Adapter) GetRun(ctx context.Context, runID core.RunID) (*simulation.RunResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result, ok := a.runs[runID]
	if !ok {
		return nil, core.NewNotFoundError("run", string(runID))
	}
	return result, nil
}

// ListRuns returns stored run records, most recent first
func (a *Adapter) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	records := make([]ports.RunRecord, 0, len(a.order))
	skipped := 0

	for i := len(a.order) - 1; i >= 0; i-- {
		result := a.runs[a.order[i]]

		if filters.DesignType != nil && result.DesignType != *filters.DesignType {
			continue
		}
		if skipped < filters.Offset {
			skipped++
			continue
		}

		records = append(records, ports.RunRecord{
			RunID:           result.RunID,
			DesignType:      result.DesignType,
			Population:      result.Population,
			Seed:            result.Seed,
			DeadVarCount:    len(result.Summary.DeadVars),
			WeakEffectCount: len(result.Summary.WeakEffects),
			Fingerprint:     result.Fingerprint,
			CompletedAt:     result.CompletedAt,
		})
		if filters.Limit > 0 && len(records) >= filters.Limit {
			break
		}
	}

	return records, nil
}
