package ports

import (
	"context"

	"gosynth/domain/core"
	"gosynth/domain/simulation"
	"gosynth/domain/study"
)

// RunLedgerWriterPort provides append-only write access to completed runs
type RunLedgerWriterPort interface {
	StoreRun(ctx context.Context, result *simulation.RunResult) error
}

// RunLedgerReaderPort provides read-only access to stored runs for review
// and export tooling
type RunLedgerReaderPort interface {
	GetRun(ctx context.Context, runID core.RunID) (*simulation.RunResult, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]RunRecord, error)
}

// RunFilters for querying stored runs
type RunFilters struct {
	DesignType *study.DesignType
	Limit      int
	Offset     int
}

// RunRecord is the list-view projection of a stored run
type RunRecord struct {
	RunID           core.RunID
	DesignType      study.DesignType
	Population      int
	Seed            int64
	DeadVarCount    int
	WeakEffectCount int
	Fingerprint     core.Hash
	CompletedAt     core.Timestamp
}

// RunLedgerPort combines read and write access
type RunLedgerPort interface {
	RunLedgerWriterPort
	RunLedgerReaderPort
}
