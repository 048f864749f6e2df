package fuzzer

import (
	"math/rand"
	"sync"
	"time"
)

// Picker chooses an index in [0, n) with uniform probability. n is always > 0.
type Picker interface {
	Pick(n int) int
}

// RandPicker is a Picker backed by math/rand. It is safe for concurrent use.
type RandPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandPicker seeds a RandPicker. A zero seed is replaced by the current time.
func NewRandPicker(seed int64) *RandPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandPicker{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns a uniform index in [0, n).
func (p *RandPicker) Pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}
