package testutil

import (
	"fmt"
	"sync"
)

// PassIDs generates deterministic pass ids for tests: "<prefix>-0001",
// "<prefix>-0002", and so on. The same test run always produces the same
// ids, which keeps golden output stable.
//
// Thread-safety: PassIDs is safe for concurrent use.
type PassIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewPassIDs creates a generator. An empty prefix becomes "test-pass".
func NewPassIDs(prefix string) *PassIDs {
	if prefix == "" {
		prefix = "test-pass"
	}
	return &PassIDs{prefix: prefix}
}

// Generate returns the next pass id.
func (g *PassIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence so the next id ends in 0001.
func (g *PassIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
