package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeededSource returns a PCG source seeded from crypto/rand. Each room
// needs its own, since *rand.Rand is not safe for concurrent use.
func NewSeededSource() (Source, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]))), nil
}
