package app

import (
	"context"
	"sync"
	"time"
)

type waitResult uint8

const (
	waitDone waitResult = iota
	waitAborted
	waitTimeout
	waitCanceled
)

// transition is a one-shot completion signal for the mark animation on a cell.
// The renderer side resolves it, the move pipeline waits on it.
type transition struct {
	cell int

	done      chan struct{}
	aborted   chan struct{}
	doneOnce  sync.Once
	abortOnce sync.Once
}

func newTransition(cell int) *transition {
	return &transition{
		cell:    cell,
		done:    make(chan struct{}),
		aborted: make(chan struct{}),
	}
}

// resolve fires the signal. Only the first call reports true.
func (t *transition) resolve() bool {
	first := false
	t.doneOnce.Do(func() {
		close(t.done)
		first = true
	})
	return first
}

// abort releases the waiter without completing the move.
func (t *transition) abort() {
	t.abortOnce.Do(func() { close(t.aborted) })
}

// wait blocks until the signal fires, is aborted, times out or ctx ends.
// A zero timeout waits without limit.
func (t *transition) wait(ctx context.Context, timeout time.Duration) waitResult {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-t.done:
		return waitDone
	case <-t.aborted:
		return waitAborted
	case <-expired:
		return waitTimeout
	case <-ctx.Done():
		return waitCanceled
	}
}
