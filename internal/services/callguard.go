package services

import (
	"context"
	"sync"

	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type inFlightKey struct{}

// CallGuard serializes every mutating ledger operation and rejects
// reentrant invocation. The context carries an in-flight marker so that a
// capability callback re-entering the vault fails instead of deadlocking
// on the mutex.
type CallGuard struct {
	mu sync.Mutex
}

func NewCallGuard() *CallGuard {
	return &CallGuard{}
}

// Enter acquires the single-in-flight slot. The returned context must be
// used for all nested work, and release must run on every exit path.
func (g *CallGuard) Enter(ctx context.Context) (context.Context, func(), error) {
	if ctx.Value(inFlightKey{}) != nil {
		return nil, nil, vaulterr.New(vaulterr.KindReentrancy, "reentrant_call", nil)
	}
	g.mu.Lock()
	return context.WithValue(ctx, inFlightKey{}, struct{}{}), g.mu.Unlock, nil
}
