// Package poller runs the periodic re-snapshot worker (§4.P): on its own
// goroutine, independent of any presentation layer, it rebuilds an
// extraction session once per period and publishes the latest result
// behind a single atomic slot, grounded on DataExtractor's sync thread
// in data_extractor.py.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/session"
)

// State is the worker's lifecycle stage.
type State int

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// BuildFunc produces one ExtractionSession, grounded on CharData's own
// per-tick construction of a fresh MemoryExtractionSession.
type BuildFunc func(ctx context.Context) (*session.ExtractionSession, error)

// Poller is a cooperative worker with a cancellation token and a fixed
// period, grounded on DataExtractor.
type Poller struct {
	build  BuildFunc
	period time.Duration
	logger *gamelog.Helper

	mu         sync.Mutex
	state      State
	latest     *session.ExtractionSession
	characters map[string]*session.CharacterEntity
	lastErr    error

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Poller that calls build once per period. The Poller does
// not start ticking until Start is called.
func New(build BuildFunc, period time.Duration, logger *gamelog.Helper) *Poller {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	return &Poller{
		build:      build,
		period:     period,
		logger:     logger,
		state:      Idle,
		characters: make(map[string]*session.CharacterEntity),
	}
}

// State returns the worker's current lifecycle stage.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Latest returns the most recently built session, or nil if no tick has
// completed yet.
func (p *Poller) Latest() *session.ExtractionSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Characters returns a snapshot copy of every character seen so far,
// keyed by name with the newest sighting winning a name collision,
// grounded on DataExtractor.__character_data.
func (p *Poller) Characters() map[string]*session.CharacterEntity {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]*session.CharacterEntity, len(p.characters))
	for name, c := range p.characters {
		out[name] = c
	}
	return out
}

// Err returns the error that stopped the worker, or nil if it is still
// running or was stopped by cancellation rather than failure.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Start transitions Idle -> Running and begins ticking on a new
// goroutine. Calling Start on an already-started Poller is an error.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return errors.New("poller: already started")
	}
	p.state = Running
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.run(ctx)
	return nil
}

// Stop requests cancellation and blocks until the worker has observed
// it and transitioned to Stopped. Calling Stop before Start, or more
// than once, is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return
	}
	p.state = Stopping
	stopCh := p.stopCh
	doneCh := p.doneCh
	p.mu.Unlock()

	close(stopCh)
	<-doneCh
}

func (p *Poller) run(ctx context.Context) {
	defer func() {
		p.mu.Lock()
		p.state = Stopped
		p.mu.Unlock()
		close(p.doneCh)
	}()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		sess, err := p.build(ctx)
		if err != nil {
			if p.tolerate(err) {
				p.logger.Warnw("transient read failure before first character seen, retrying", "err", err)
				if !p.sleep(ctx) {
					return
				}
				continue
			}
			p.logger.Errorw("poll cycle failed", "err", err)
			p.mu.Lock()
			p.lastErr = err
			p.mu.Unlock()
			return
		}

		p.mu.Lock()
		p.latest = sess
		if char := sess.Character(); char != nil && char.Name != "" {
			p.characters[char.Name] = char
		}
		p.mu.Unlock()

		if !p.sleep(ctx) {
			return
		}
	}
}

// tolerate reports whether err is the one failure mode a tick swallows
// rather than surfaces: an unmapped-address read before any character
// has ever been decoded (the client may still be mid-login), grounded
// on __sync_char's MemoryReadError branch.
func (p *Poller) tolerate(err error) bool {
	if !isUnmappedAddress(err) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.characters) == 0
}

func isUnmappedAddress(err error) bool {
	var memErr *procmem.MemoryReadError
	if errors.As(err, &memErr) {
		return memErr.Addr == 0
	}
	return false
}

// sleep waits one period, or returns early (false) if cancellation is
// observed first. Cancellation is checked both before and after the
// sleep, per the state machine's Stopping -> Stopped transition.
func (p *Poller) sleep(ctx context.Context) bool {
	select {
	case <-p.stopCh:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(p.period):
		return true
	}
}
