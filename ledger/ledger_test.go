package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	assert "github.com/stretchr/testify/require"

	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

func TestLedger_AppendAndSnapshot(t *testing.T) {
	l := New()
	defer l.Close()
	ctx := context.Background()

	testcases, err := l.Snapshot(ctx)
	assert.NoError(t, err)
	assert.Empty(t, testcases)

	for i := 0; i < 3; i++ {
		err := l.Append(ctx, testcase.Testcase{Name: fmt.Sprintf("GET /pets/%d", i)})
		assert.NoError(t, err)
	}

	testcases, err = l.Snapshot(ctx)
	assert.NoError(t, err)
	assert.Len(t, testcases, 3)
	assert.Equal(t, "GET /pets/0", testcases[0].Name)
	assert.Equal(t, "GET /pets/2", testcases[2].Name)
}

func TestLedger_SnapshotIsCopy(t *testing.T) {
	l := New()
	defer l.Close()
	ctx := context.Background()

	assert.NoError(t, l.Append(ctx, testcase.Testcase{Name: "first"}))

	snapshot, err := l.Snapshot(ctx)
	assert.NoError(t, err)
	snapshot[0].Name = "changed"

	assert.NoError(t, l.Append(ctx, testcase.Testcase{Name: "second"}))

	again, err := l.Snapshot(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "first", again[0].Name)
	assert.Len(t, again, 2)
	assert.Len(t, snapshot, 1)
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	l := New()
	defer l.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- l.Append(ctx, testcase.Testcase{Name: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	testcases, err := l.Snapshot(ctx)
	assert.NoError(t, err)
	assert.Len(t, testcases, 50)

	seen := make(map[string]bool)
	for _, tc := range testcases {
		seen[tc.Name] = true
	}
	assert.Len(t, seen, 50)
}

func TestLedger_Close(t *testing.T) {
	l := New()
	ctx := context.Background()

	assert.NoError(t, l.Append(ctx, testcase.Testcase{Name: "kept"}))
	l.Close()
	l.Close()

	err := l.Append(ctx, testcase.Testcase{Name: "dropped"})
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, errors.Cause(errors.Wrap(err, "recording")))

	testcases, err := l.Snapshot(ctx)
	assert.NoError(t, err)
	assert.Len(t, testcases, 1)
	assert.Equal(t, "kept", testcases[0].Name)
}

func TestLedger_ContextCanceled(t *testing.T) {
	l := New()
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	// A canceled context may still win the race against a ready ledger, so
	// only the error type is checked.
	if err := l.Append(ctx, testcase.Testcase{}); err != nil {
		assert.Equal(t, context.DeadlineExceeded, err)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]testcase.Testcase{
		{Name: "ok"},
		{Name: "bad", Failures: []testcase.Failure{{Kind: testcase.PathNotFound}}},
		{Name: "worse", Failures: []testcase.Failure{
			{Kind: testcase.InvalidStatusCode},
			{Kind: testcase.UnexpectedNull},
		}},
	})
	assert.Equal(t, Summary{Tests: 3, Failures: 2}, summary)

	assert.Equal(t, Summary{}, Summarize(nil))
}
