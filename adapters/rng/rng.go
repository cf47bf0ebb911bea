// Package rng implements ports.RNGPort with PCG streams derived from a run seed.
package rng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// Adapter implements ports.RNGPort
type Adapter struct{}

// NewAdapter creates an RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Stream creates a deterministic RNG for a named draw. The stream name is
// hashed into the second PCG word so "pvalues" and "heatmap" never share a
// sequence for the same seed.
func (a *Adapter) Stream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(uint64(seed), hashString(name))), nil
}

// NewSeed returns a positive non-zero seed from the OS entropy source.
func (a *Adapter) NewSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano() & 0x7fffffffffffffff
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) & 0x7fffffffffffffff)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// hashString creates a simple hash for deterministic seeding (djb2)
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c)
	}
	return hash
}
