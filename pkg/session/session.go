package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"firekey-hq/tally/pkg/ledger"
	"firekey-hq/tally/pkg/usage"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateOpen accepts records.
	StateOpen State = iota
	// StateClosed rejects records; the summary has been written.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SessionClosedError is returned by Record after Close.
type SessionClosedError struct {
	FileName string
}

// Error implements the error interface.
func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session closed: cannot record %q", e.FileName)
}

// Session binds a usage tracker to its ledger sinks for one batch run.
// Close writes the run summary exactly once.
type Session struct {
	tracker *usage.Tracker
	sinks   []ledger.Sink
	out     io.Writer
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	once     sync.Once
	summary  *usage.Summary
	closeErr error
}

// Option configures a Session.
type Option func(*Session)

// WithSinks adds sinks that receive the same records and summary as the
// primary sink.
func WithSinks(sinks ...ledger.Sink) Option {
	return func(s *Session) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

// WithOutput sets where the summary line is printed. Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New opens a session over tracker and primary.
func New(tracker *usage.Tracker, primary ledger.Sink, opts ...Option) *Session {
	s := &Session{
		tracker: tracker,
		out:     os.Stdout,
		logger:  slog.Default(),
		state:   StateOpen,
	}
	if primary != nil {
		s.sinks = append(s.sinks, primary)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Tracker returns the session's tracker.
func (s *Session) Tracker() *usage.Tracker {
	return s.tracker
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record forwards rec to every sink. A failing sink does not stop the
// others; their errors are joined.
func (s *Session) Record(rec *usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return &SessionClosedError{FileName: rec.FileName}
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Append(rec); err != nil {
			s.logger.Error("Failed to append record", "file", rec.FileName, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close computes the tracker summary, finalizes every sink and prints the
// summary line. Only the first call does work; later calls return the same
// error.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.summary = s.tracker.Summary()
		s.mu.Unlock()

		var errs []error
		for _, sink := range s.sinks {
			if err := sink.Finalize(s.summary); err != nil {
				s.logger.Error("Failed to finalize ledger", "error", err)
				errs = append(errs, err)
			}
		}

		if _, err := fmt.Fprintln(s.out, s.summary.String()); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)

		s.logger.Debug("Session closed",
			"files", s.summary.FileCount,
			"tokens", s.summary.TotalTokens,
			"cost", s.summary.TotalCost.StringFixed(6),
		)
	})
	return s.closeErr
}

// Summary returns the summary written by Close, or nil while open.
func (s *Session) Summary() *usage.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		return nil
	}
	return s.summary
}

// Run calls fn and closes s on every exit path, including a panic in fn,
// which is re-raised after the summary is written.
func Run(s *Session, fn func(*Session) error) (err error) {
	defer func() {
		r := recover()
		closeErr := s.Close()
		if r != nil {
			panic(r)
		}
		err = errors.Join(err, closeErr)
	}()
	return fn(s)
}
