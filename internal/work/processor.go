package work

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/events"
)

// Processor serializes score recomputation per company. Any number of
// writers can call Enqueue; at most one recompute runs for a given
// company at a time, while different companies recompute in parallel.
// Triggers that arrive while a company is already in flight coalesce
// into a single follow-up run, so a burst of votes costs two
// recomputes at most.
type Processor struct {
	recomputer Recomputer
	bus        *events.Bus
	log        zerolog.Logger

	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	mu       sync.Mutex
	queued   map[string]bool // waiting to run
	running  map[string]bool // currently in flight
	pending  map[string]bool // re-triggered while in flight
	attempts map[string]int  // consecutive failures

	trigger chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup
}

// NewProcessor creates a processor with the default retry policy.
func NewProcessor(recomputer Recomputer, bus *events.Bus, log zerolog.Logger) *Processor {
	return newProcessor(recomputer, bus, log, MaxRetries, BaseBackoff, MaxBackoff)
}

func newProcessor(recomputer Recomputer, bus *events.Bus, log zerolog.Logger, maxRetries int, baseBackoff, maxBackoff time.Duration) *Processor {
	return &Processor{
		recomputer:  recomputer,
		bus:         bus,
		log:         log.With().Str("component", "work_processor").Logger(),
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
		queued:      make(map[string]bool),
		running:     make(map[string]bool),
		pending:     make(map[string]bool),
		attempts:    make(map[string]int),
		trigger:     make(chan struct{}, 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Enqueue requests a recompute for the company. It never blocks the
// caller: the request is recorded and the dispatch loop is nudged.
func (p *Processor) Enqueue(companyID string) {
	p.mu.Lock()
	if p.running[companyID] {
		p.pending[companyID] = true
	} else {
		p.queued[companyID] = true
	}
	p.mu.Unlock()

	p.nudge()
}

func (p *Processor) nudge() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run dispatches queued recomputes until Stop is called.
func (p *Processor) Run() {
	defer close(p.stopped)

	p.log.Info().Msg("Work processor started")

	for {
		select {
		case <-p.stop:
			p.wg.Wait()
			p.log.Info().Msg("Work processor stopped")
			return
		case <-p.trigger:
			p.dispatch()
		}
	}
}

// Stop shuts the processor down and waits for in-flight recomputes.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.stopped
}

func (p *Processor) dispatch() {
	p.mu.Lock()
	var ready []string
	for companyID := range p.queued {
		if !p.running[companyID] {
			ready = append(ready, companyID)
		}
	}
	for _, companyID := range ready {
		delete(p.queued, companyID)
		p.running[companyID] = true
	}
	p.mu.Unlock()

	for _, companyID := range ready {
		p.wg.Add(1)
		go p.run(companyID)
	}
}

func (p *Processor) run(companyID string) {
	defer p.wg.Done()

	start := time.Now()
	err := p.recomputer.Recompute(companyID)

	p.mu.Lock()
	delete(p.running, companyID)

	if err != nil {
		p.attempts[companyID]++
		attempt := p.attempts[companyID]
		p.mu.Unlock()

		if attempt >= p.maxRetries {
			p.log.Error().Err(err).
				Str("company_id", companyID).
				Int("attempts", attempt).
				Msg("Recompute failed permanently, keeping last committed score")
			p.bus.EmitTyped(events.ErrorOccurred, "work", &events.ErrorEventData{
				Error:   err.Error(),
				Context: map[string]interface{}{"company_id": companyID, "attempts": attempt},
			})
			p.clearAttempts(companyID)
			return
		}

		delay := p.backoff(attempt)
		p.log.Warn().Err(err).
			Str("company_id", companyID).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("Recompute failed, scheduling retry")

		time.AfterFunc(delay, func() {
			select {
			case <-p.stop:
			default:
				p.Enqueue(companyID)
			}
		})
		return
	}

	p.attempts[companyID] = 0
	rerun := p.pending[companyID]
	if rerun {
		delete(p.pending, companyID)
		p.queued[companyID] = true
	}
	p.mu.Unlock()

	p.log.Debug().
		Str("company_id", companyID).
		Dur("duration", time.Since(start)).
		Bool("rerun_pending", rerun).
		Msg("Recompute finished")

	if rerun {
		p.nudge()
	}
}

func (p *Processor) clearAttempts(companyID string) {
	p.mu.Lock()
	p.attempts[companyID] = 0
	p.mu.Unlock()
}

func (p *Processor) backoff(attempt int) time.Duration {
	delay := p.baseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxBackoff {
			return p.maxBackoff
		}
	}
	return delay
}
