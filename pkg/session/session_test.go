package session

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firekey-hq/tally/pkg/ledger"
	"firekey-hq/tally/pkg/processing/costs"
	"firekey-hq/tally/pkg/usage"
)

type recordingSink struct {
	mu        sync.Mutex
	appended  []string
	summaries []*usage.Summary
	appendErr error
}

func (s *recordingSink) Append(rec *usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, rec.FileName)
	return nil
}

func (s *recordingSink) Finalize(summary *usage.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

func newTracker() *usage.Tracker {
	return usage.NewTracker(nil, usage.WithSink(&bytes.Buffer{}))
}

func record(t *usage.Tracker, file string) *usage.Record {
	u := &usage.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}
	cost := costs.NewCalculator(nil).PriceFor("gpt-4o-mini", 100, 50)
	return t.RecordCall(file, "gpt-4o-mini", u, cost)
}

func TestSession_ZeroRecordsWritesOneSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.csv")
	csvLogger, err := ledger.NewCSVLogger(path)
	require.NoError(t, err)
	defer csvLogger.Close()

	var out bytes.Buffer
	s := New(newTracker(), csvLogger, WithOutput(&out))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "# Files: 0 | Total tokens: 0 | Estimated cost: $0.000000", lines[1])

	assert.Equal(t, "Total: 0 files, 0 tokens, $0.000000\n", out.String())
}

func TestSession_RecordForwardsToAllSinks(t *testing.T) {
	tracker := newTracker()
	primary := &recordingSink{}
	extra := &recordingSink{}
	s := New(tracker, primary, WithSinks(extra, nil), WithOutput(&bytes.Buffer{}))

	require.NoError(t, s.Record(record(tracker, "a.txt")))
	require.NoError(t, s.Record(record(tracker, "b.txt")))
	require.NoError(t, s.Close())

	assert.Equal(t, []string{"a.txt", "b.txt"}, primary.appended)
	assert.Equal(t, []string{"a.txt", "b.txt"}, extra.appended)
	require.Len(t, primary.summaries, 1)
	require.Len(t, extra.summaries, 1)
	assert.Equal(t, 2, primary.summaries[0].FileCount)
	assert.Equal(t, 300, primary.summaries[0].TotalTokens)
}

func TestSession_RecordAfterClose(t *testing.T) {
	tracker := newTracker()
	s := New(tracker, &recordingSink{}, WithOutput(&bytes.Buffer{}))
	require.NoError(t, s.Close())

	err := s.Record(record(tracker, "late.txt"))
	var closedErr *SessionClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, "late.txt", closedErr.FileName)
	assert.Equal(t, StateClosed, s.State())
}

func TestSession_FailingSinkDoesNotStopOthers(t *testing.T) {
	tracker := newTracker()
	broken := &recordingSink{appendErr: errors.New("disk full")}
	healthy := &recordingSink{}
	s := New(tracker, broken, WithSinks(healthy), WithOutput(&bytes.Buffer{}))

	err := s.Record(record(tracker, "a.txt"))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"a.txt"}, healthy.appended)
}

func TestSession_SummaryOnlyAfterClose(t *testing.T) {
	tracker := newTracker()
	s := New(tracker, nil, WithOutput(&bytes.Buffer{}))
	assert.Nil(t, s.Summary())
	assert.Equal(t, StateOpen, s.State())

	_ = record(tracker, "a.txt")
	require.NoError(t, s.Close())

	summary := s.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.FileCount)
	assert.True(t, summary.TotalCost.Equal(decimal.RequireFromString("0.000045")))
}

func TestRun_ClosesOnError(t *testing.T) {
	sink := &recordingSink{}
	s := New(newTracker(), sink, WithOutput(&bytes.Buffer{}))

	boom := errors.New("aborted")
	err := Run(s, func(*Session) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Len(t, sink.summaries, 1)
	assert.Equal(t, StateClosed, s.State())
}

func TestRun_ClosesOnPanic(t *testing.T) {
	sink := &recordingSink{}
	tracker := newTracker()
	s := New(tracker, sink, WithOutput(&bytes.Buffer{}))

	assert.PanicsWithValue(t, "mid-batch", func() {
		_ = Run(s, func(s *Session) error {
			require.NoError(t, s.Record(record(tracker, "a.txt")))
			panic("mid-batch")
		})
	})

	require.Len(t, sink.summaries, 1)
	assert.Equal(t, 1, sink.summaries[0].FileCount)
}

func TestRun_ClosesOnSuccess(t *testing.T) {
	sink := &recordingSink{}
	s := New(newTracker(), sink, WithOutput(&bytes.Buffer{}))

	require.NoError(t, Run(s, func(*Session) error { return nil }))
	assert.Len(t, sink.summaries, 1)
}

func TestSession_ConcurrentCloseFinalizesOnce(t *testing.T) {
	sink := &recordingSink{}
	s := New(newTracker(), sink, WithOutput(&bytes.Buffer{}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Close()
		}()
	}
	wg.Wait()

	assert.Len(t, sink.summaries, 1)
}
