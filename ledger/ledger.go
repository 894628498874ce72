// Package ledger keeps the testcases recorded over a proxy run, in the order
// they completed.
package ledger

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

// ErrClosed is returned by operations on a ledger that has been closed.
var ErrClosed = errors.New("ledger is closed")

// Ledger is an append-only list of testcases. A single goroutine owns the
// list and serves appends and snapshots over channels, so callers never share
// it and nothing is locked while a report is rendered.
type Ledger struct {
	appends   chan testcase.Testcase
	snapshots chan chan []testcase.Testcase

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}

	// final is written once by the ledger goroutine before stopped is
	// closed, and only read after.
	final []testcase.Testcase
}

// Summary counts the testcases in a ledger.
type Summary struct {
	Tests    int
	Failures int
}

// Summarize counts testcases and testcases with at least one failure.
func Summarize(testcases []testcase.Testcase) Summary {
	summary := Summary{Tests: len(testcases)}
	for _, tc := range testcases {
		if tc.Failed() {
			summary.Failures++
		}
	}
	return summary
}

// New starts a ledger. Call Close to stop its goroutine.
func New() *Ledger {
	l := &Ledger{
		appends:   make(chan testcase.Testcase),
		snapshots: make(chan chan []testcase.Testcase),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go l.run()
	return l
}

// Append records a finished testcase.
func (l *Ledger) Append(ctx context.Context, tc testcase.Testcase) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	select {
	case l.appends <- tc:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of every testcase recorded so far, in append order.
// Snapshots of a closed ledger still work and return the final contents.
func (l *Ledger) Snapshot(ctx context.Context) ([]testcase.Testcase, error) {
	reply := make(chan []testcase.Testcase, 1)

	select {
	case l.snapshots <- reply:
	case <-l.stopped:
		// The final contents were published on the way out.
		return copyTestcases(l.final), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case testcases := <-reply:
		return testcases, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the ledger goroutine and waits for it to exit. Appends after
// Close return ErrClosed. Close is safe to call more than once.
func (l *Ledger) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	<-l.stopped
}

func (l *Ledger) run() {
	var testcases []testcase.Testcase
	defer func() {
		l.final = testcases
		close(l.stopped)
	}()

	for {
		select {
		case tc := <-l.appends:
			testcases = append(testcases, tc)
		case reply := <-l.snapshots:
			reply <- copyTestcases(testcases)
		case <-l.done:
			return
		}
	}
}

func copyTestcases(testcases []testcase.Testcase) []testcase.Testcase {
	out := make([]testcase.Testcase, len(testcases))
	copy(out, testcases)
	return out
}
