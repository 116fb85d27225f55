// Package session sequences resume extraction, job scraping and match
// analysis for one resume-tools view.
//
// All state lives on a single event loop goroutine. Triggers are executed on
// the loop and return once the transition is decided; remote calls run on
// their own goroutines and post their completions back to the loop. Every
// operation carries the generation it started under, and completions from an
// older generation are dropped.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/ai"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/resume"
)

// Extractor turns a resume file into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, file resume.File) (string, error)
}

// Scraper turns a job posting URL into a job description.
type Scraper interface {
	ScrapeJob(ctx context.Context, url string) (string, error)
}

// Services are the remote collaborators of a session.
type Services struct {
	Extractor Extractor
	Scraper   Scraper
	Analyzer  ai.Analyzer
}

// command is a unit of work for the loop. reply, when set, receives the
// result after the new state is published.
type command struct {
	fn    func() error
	reply chan error
}

type Session struct {
	svc    Services
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	cmds chan command
	done chan struct{}

	// Owned by the loop goroutine.
	st       Snapshot
	opCancel context.CancelFunc

	mu      sync.Mutex
	snap    Snapshot
	changed chan struct{}
	subs    map[chan Snapshot]struct{}
}

// New starts a session. It is closed when ctx is done or Close is called.
func New(ctx context.Context, svc Services, log *zap.Logger) (*Session, error) {
	if svc.Extractor == nil || svc.Scraper == nil || svc.Analyzer == nil {
		return nil, errors.New("session requires an extractor, a scraper and an analyzer")
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		svc:     svc,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
		cmds:    make(chan command),
		done:    make(chan struct{}),
		changed: make(chan struct{}),
		subs:    make(map[chan Snapshot]struct{}),
	}

	go s.run()

	return s, nil
}

func (s *Session) run() {
	defer s.shutdown()

	for {
		var (
			cmd command
			err error
		)

		select {
		case cmd = <-s.cmds:
			err = cmd.fn()
		case <-s.ctx.Done():
			s.close()
		}

		s.publish()

		if cmd.reply != nil {
			cmd.reply <- err
		}

		if s.st.Closed {
			return
		}
	}
}

// do runs fn on the loop and returns its result.
func (s *Session) do(fn func() error) error {
	reply := make(chan error, 1)

	select {
	case s.cmds <- command{fn: fn, reply: reply}:
	case <-s.done:
		return ErrClosed
	}

	return <-reply
}

// post queues fn on the loop without waiting. It is dropped once the loop
// has exited.
func (s *Session) post(fn func()) {
	cmd := command{fn: func() error {
		fn()
		return nil
	}}

	select {
	case s.cmds <- cmd:
	case <-s.done:
	}
}

func (s *Session) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = s.st.clone()

	close(s.changed)
	s.changed = make(chan struct{})

	for ch := range s.subs {
		offer(ch, s.snap.clone())
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()

	close(s.done)
}

// offer replaces whatever ch holds with snap.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

func (s *Session) log() *zap.Logger {
	return logger.WithFields(s.logger,
		zap.Uint64(logger.FieldGeneration, s.st.Generation),
		zap.Stringer(logger.FieldPhase, s.st.Phase),
	)
}

// Snapshot returns a copy of the latest published state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Subscribe returns a channel that always holds the most recent state. Slow
// readers skip intermediate states. The channel is closed by the returned
// cancel func or when the session closes.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch <- s.snap.clone()
	if s.subs == nil {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

// WaitIdle blocks until no operation is in flight.
func (s *Session) WaitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		snap, changed := s.snap, s.changed
		s.mu.Unlock()

		if snap.Closed {
			return ErrClosed
		}
		if snap.Phase == Idle {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Reset drops all state and abandons the in-flight operation, if any. The
// session stays usable.
func (s *Session) Reset() error {
	return s.do(func() error {
		s.abandon()
		s.st = Snapshot{Generation: s.st.Generation}
		s.log().Debug("session reset")
		return nil
	})
}

// Close abandons the in-flight operation and stops the session.
func (s *Session) Close() error {
	err := s.do(func() error {
		s.close()
		return nil
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	<-s.done
	return err
}

func (s *Session) close() {
	if s.st.Closed {
		return
	}
	s.abandon()
	s.cancel()
	s.st.Phase = Idle
	s.st.Closed = true
	s.log().Debug("session closed")
}

// abandon moves to a new generation so the in-flight completion, if any,
// is discarded.
func (s *Session) abandon() {
	if s.opCancel != nil {
		s.opCancel()
		s.opCancel = nil
	}
	s.st.Generation++
}
