// Package schedule owns the single background worker that performs all
// network fetches. Jobs flow through a bounded queue and complete with a
// callback; the interactive side never blocks on network I/O.
package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"stockticker/internal/parse"
	"stockticker/internal/provider"
	"stockticker/internal/quote"
)

// Callback receives the completed record snapshot. It is invoked from the
// worker goroutine, success or failure; the consumer marshals onto its own
// execution context.
type Callback func(*quote.Record)

// jobState tracks a job through its lifecycle.
type jobState int

const (
	stateQueued jobState = iota
	stateFetching
	stateDelivered
	stateFailed
)

type job struct {
	rec   *quote.Record
	done  Callback
	state jobState
}

type Config struct {
	// QueueSize bounds the job queue. Zero means 32.
	QueueSize int
	// PollInterval is how long a blocking dequeue waits before re-checking
	// the shutdown flag. Zero means 1s.
	PollInterval time.Duration
	// FetchTimeout bounds one primary quote call. Zero means 10s.
	FetchTimeout time.Duration
	// ResolveTimeout bounds one name-resolver call. Zero means 5s.
	ResolveTimeout time.Duration
}

// Scheduler serializes all fetches through one worker: at most one fetch is
// in flight globally, and records complete in enqueue order. Duplicate
// enqueues for the same symbol are not coalesced; each runs and delivers.
type Scheduler struct {
	cfg       Config
	quotes    provider.QuoteClient
	resolvers []provider.NameResolver

	jobs chan *job
	stop chan struct{}
	wg   sync.WaitGroup

	once sync.Once
}

func New(cfg Config, quotes provider.QuoteClient, resolvers ...provider.NameResolver) *Scheduler {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 5 * time.Second
	}
	return &Scheduler{
		cfg:       cfg,
		quotes:    quotes,
		resolvers: resolvers,
		jobs:      make(chan *job, cfg.QueueSize),
		stop:      make(chan struct{}),
	}
}

// Start launches the worker. Safe to call once.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Stop shuts the worker down after any in-flight job finishes. Queued jobs
// are abandoned without delivery.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Enqueue queues a fetch for rec. It reports false when the queue is full
// or the scheduler is stopped; the record is then untouched until the next
// cycle enqueues it again.
func (s *Scheduler) Enqueue(rec *quote.Record, done Callback) bool {
	// Check the stop flag on its own first: a combined select would pick
	// randomly between a closed stop channel and free buffer space,
	// sometimes accepting a job no worker will ever process.
	select {
	case <-s.stop:
		return false
	default:
	}
	j := &job{rec: rec, done: done, state: stateQueued}
	select {
	case s.jobs <- j:
		return true
	default:
		return false
	}
}

// Len reports the current queue depth.
func (s *Scheduler) Len() int { return len(s.jobs) }

func (s *Scheduler) worker() {
	defer s.wg.Done()
	timer := time.NewTimer(s.cfg.PollInterval)
	defer timer.Stop()
	for {
		timer.Reset(s.cfg.PollInterval)
		select {
		case <-s.stop:
			return
		case j := <-s.jobs:
			s.process(j)
		case <-timer.C:
			// bounded wait elapsed; loop to re-check shutdown
		}
	}
}

// process runs one job end to end. Upstream failures stay inside the job:
// the record keeps its last-known-good state, the error kind is noted, and
// the callback fires regardless so the consumer can show staleness.
func (s *Scheduler) process(j *job) {
	j.state = stateFetching
	rec := j.rec

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
	payload, err := s.quotes.Fetch(ctx, rec.Symbol)
	cancel()

	switch {
	case err != nil:
		rec.LastErr = provider.KindOf(err)
		log.Printf("schedule: %s fetch %s: %v", rec.Symbol, s.quotes.Name(), err)
	default:
		ok, perr := parse.Quote(rec, payload)
		switch {
		case perr != nil:
			rec.LastErr = quote.ErrMalformedPayload
			log.Printf("schedule: %s parse: %v", rec.Symbol, perr)
		case !ok:
			rec.LastErr = quote.ErrNoUsablePrice
			log.Printf("schedule: %s no usable price, keeping previous", rec.Symbol)
		default:
			rec.LastErr = quote.ErrNone
		}
	}

	if !rec.NameResolved && !rec.NameTried && !rec.HasRealName() {
		s.resolveName(rec)
	}

	if rec.LastErr == quote.ErrNone {
		j.state = stateDelivered
	} else {
		j.state = stateFailed
	}
	if j.done != nil {
		j.done(rec.Clone())
	}
}

// resolveName walks the resolver chain once. The first non-empty name wins
// and pins NameResolved; after one full attempt the record is never
// retried, resolved or not.
func (s *Scheduler) resolveName(rec *quote.Record) {
	rec.NameTried = true
	for _, r := range s.resolvers {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ResolveTimeout)
		name, err := r.Resolve(ctx, rec.Symbol)
		cancel()
		if err != nil {
			log.Printf("schedule: %s resolve %s: %v", rec.Symbol, r.Name(), err)
			continue
		}
		if name != "" {
			rec.DisplayName = name
			rec.NameResolved = true
			return
		}
	}
}
