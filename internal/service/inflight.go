package service

import (
	"sync"

	"github.com/sfms-dev/facility_bot/internal/apperr"
)

// inflight rejects a second submission for a key while the first is running.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

// begin claims key and returns the release func.
func (g *inflight) begin(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.keys[key]; busy {
		return nil, apperr.WithMetadata(apperr.CodeSubmissionInProgress, "a submission is already in progress",
			map[string]string{"key": key})
	}
	g.keys[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.keys, key)
		g.mu.Unlock()
	}, nil
}
