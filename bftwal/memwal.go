package bftwal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bftengine/core/bftconsensus"
)

// MemWAL is an in-memory WAL: it exists for tests and the demo application,
// never for production durability, since its entries vanish on process
// exit.
type MemWAL struct {
	mu      sync.Mutex
	height  bftconsensus.Height
	entries map[bftconsensus.Round][]Entry
}

// NewMemWAL returns an empty MemWAL.
func NewMemWAL() *MemWAL {
	return &MemWAL{entries: make(map[bftconsensus.Round][]Entry)}
}

func (w *MemWAL) StartHeight(_ context.Context, height bftconsensus.Height) ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if height != w.height {
		w.height = height
		w.entries = make(map[bftconsensus.Round][]Entry)
		return nil, nil
	}

	// Resuming the same height after a restart: flatten every round's
	// entries in round order for replay.
	rounds := make([]bftconsensus.Round, 0, len(w.entries))
	for r := range w.entries {
		rounds = append(rounds, r)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Less(rounds[j]) })

	var all []Entry
	for _, r := range rounds {
		all = append(all, w.entries[r]...)
	}
	return all, nil
}

func (w *MemWAL) Append(_ context.Context, height bftconsensus.Height, round bftconsensus.Round, entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if height != w.height {
		return fmt.Errorf("bftwal: append for height %d, WAL is on height %d", height, w.height)
	}
	w.entries[round] = append(w.entries[round], entry)
	return nil
}

func (w *MemWAL) Flush(context.Context) error {
	// Already durable (in the sense this implementation offers) the
	// moment Append returns.
	return nil
}
