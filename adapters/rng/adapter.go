package rng

import (
	"context"
	"fmt"
	"math/rand"

	"gosynth/domain/core"
)

// Adapter implements ports.RNGPort with hash-derived named streams. Stream
// seeds depend only on the base seed and the stage/key names, never on wall
// time or execution order, so a fixed seed reproduces every draw sequence.
type Adapter struct{}

// NewAdapter creates the stream factory
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a specific stage/key pair
func (a *Adapter) Stream(ctx context.Context, stageName, streamKey string, baseSeed int64) (*rand.Rand, error) {
	seed := baseSeed
	if stageName != "" {
		seed += int64(hashString(stageName))
	}
	if streamKey != "" {
		seed += int64(hashString(streamKey))
	}
	return rand.New(rand.NewSource(seed)), nil
}

// ValidateSeed replays the first draws of a named stream against expected values
func (a *Adapter) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	stream, err := a.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		got := stream.Float64()
		if got != want {
			return fmt.Errorf("%w: stream %s seed %d draw %d produced %v, expected %v",
				core.ErrSeedMismatch, name, seed, i, got, want)
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
