// internal/poll/poll.go
package poll

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 2000 * time.Millisecond

// ErrAlreadyRunning reports a Start on a loop that is still engaged.
var ErrAlreadyRunning = errors.New("poll: already running")

// Reader is the exact engine contract the loop drives.
// IMPORTANT: There must be NO other version of this interface anywhere.
type Reader interface {
	Read(fc uint8, addr, count uint16) ([]uint16, error)
	Connected() bool
	InFlight() bool
}

// Sink receives each successful read.
type Sink interface {
	Replace(start uint16, values []uint16)
}

// Request describes what a tick reads.
type Request struct {
	FC    uint8
	Addr  uint16
	Count uint16
}

// Loop drives one read through the reader per tick and feeds the sink.
// One goroutine; ticks never overlap because each read completes before
// the next select. A read error disengages the loop; the caller re-arms
// it explicitly.
type Loop struct {
	rd       Reader
	sink     Sink
	log      zerolog.Logger
	interval time.Duration
	onStop   func(error)

	mu     sync.Mutex
	stopCh chan struct{} // non-nil while engaged
	wg     sync.WaitGroup
}

type Option func(*Loop)

// WithInterval overrides the default tick period.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

// WithOnStop registers a callback invoked once when the loop disengages:
// with the terminal read error, or nil after an explicit Stop.
func WithOnStop(fn func(error)) Option {
	return func(l *Loop) { l.onStop = fn }
}

func New(rd Reader, sink Sink, logger zerolog.Logger, opts ...Option) *Loop {
	l := &Loop{
		rd:       rd,
		sink:     sink,
		log:      logger.With().Str("component", "poll").Logger(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start engages the loop. The provider func is consulted on every tick, so
// the active request can change without a restart. Fails if still engaged.
func (l *Loop) Start(get func() Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopCh != nil {
		return ErrAlreadyRunning
	}

	stop := make(chan struct{})
	l.stopCh = stop
	l.wg.Add(1)
	go l.run(get, stop)

	return nil
}

// Stop disengages the loop and returns once the loop goroutine has exited.
// No further tick starts; a tick already executing completes and its
// result still lands in the sink. Stopping a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop := l.stopCh
	l.stopCh = nil
	l.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	l.wg.Wait()
}

// Running reports whether the loop is engaged.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopCh != nil
}

func (l *Loop) run(get func() Request, stop chan struct{}) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			l.finish(stop, nil)
			return

		case <-ticker.C:
			// A stop racing the tick wins.
			select {
			case <-stop:
				l.finish(stop, nil)
				return
			default:
			}

			req := get()
			if !pollable(req.FC) {
				continue
			}
			if !l.rd.Connected() || l.rd.InFlight() {
				continue
			}

			values, err := l.rd.Read(req.FC, req.Addr, req.Count)
			if err != nil {
				l.log.Warn().
					Err(err).
					Uint8("fc", req.FC).
					Uint16("addr", req.Addr).
					Msg("auto poll disengaged")
				l.finish(stop, err)
				return
			}
			l.sink.Replace(req.Addr, values)
		}
	}
}

// finish clears the engaged state if the loop still owns it and reports
// the terminal error.
func (l *Loop) finish(stop chan struct{}, err error) {
	l.mu.Lock()
	if l.stopCh == stop {
		l.stopCh = nil
	}
	l.mu.Unlock()

	if l.onStop != nil {
		l.onStop(err)
	}
}

// pollable reports whether fc is eligible for auto polling.
func pollable(fc uint8) bool {
	switch fc {
	case 1, 2, 3, 4:
		return true
	}
	return false
}
