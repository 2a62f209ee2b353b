package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fermata/src/features/config"
	"fermata/src/features/jobs"
	"fermata/src/features/metrics"
)

// JobType is the job registry type under which indexing runs are tracked.
const JobType = "index"

// ErrRunInProgress is returned when a run is requested while another is
// still active. Runs are strictly serialized; callers surface this as a
// conflict instead of queueing.
var ErrRunInProgress = errors.New("an indexing run is already in progress")

// subscriberBuffer is the per-subscriber event buffer. A subscriber that
// falls this far behind starts losing intermediate progress ticks; terminal
// events displace buffered ticks instead of being dropped.
const subscriberBuffer = 256

// Service coordinates indexing runs: at most one run at a time, with any
// number of subscribers observing its progress events. A subscriber that
// goes away mid-run is dropped without affecting the run.
type Service struct {
	engine *Engine
	jobs   *jobs.Service
	config *config.Manager

	mu          sync.Mutex
	running     bool
	jobID       string
	subscribers map[chan Event]struct{}
}

// NewService creates a new indexing service.
func NewService(engine *Engine, jobService *jobs.Service, cfg *config.Manager) *Service {
	return &Service{
		engine:      engine,
		jobs:        jobService,
		config:      cfg,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Running reports whether an indexing run is currently active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins an indexing run and returns a channel of its progress
// events, closed after the terminal event. ErrRunInProgress when a run is
// already active. The run executes as a background job and outlives any
// individual subscriber.
func (s *Service) Start() (<-chan Event, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	ch := make(chan Event, subscriberBuffer)
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	jobID, err := s.jobs.StartJob(JobType, "Library indexing", nil, s.runTask)
	if err != nil {
		s.mu.Lock()
		s.running = false
		delete(s.subscribers, ch)
		s.mu.Unlock()
		close(ch)
		if errors.Is(err, jobs.ErrTypeBusy) {
			return nil, ErrRunInProgress
		}
		return nil, err
	}

	s.mu.Lock()
	s.jobID = jobID
	s.mu.Unlock()
	return ch, nil
}

// Subscribe attaches an observer to the active run. ErrNoRun when idle.
var ErrNoRun = errors.New("no indexing run is active")

func (s *Service) Subscribe() (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil, ErrNoRun
	}
	ch := make(chan Event, subscriberBuffer)
	s.subscribers[ch] = struct{}{}
	return ch, nil
}

// Unsubscribe detaches an observer; the run continues regardless.
func (s *Service) Unsubscribe(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		if sub == ch {
			delete(s.subscribers, sub)
			close(sub)
			return
		}
	}
}

// Cancel requests cooperative cancellation of the active run.
func (s *Service) Cancel() error {
	s.mu.Lock()
	jobID := s.jobID
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrNoRun
	}
	return s.jobs.CancelJob(jobID)
}

// runTask is the job body of one indexing run.
func (s *Service) runTask(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	defer s.finish()

	events := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			s.broadcast(event)
			if percent, message, ok := jobProgress(event); ok {
				progressUpdater(percent, message)
			}
		}
	}()

	report, err := s.engine.Run(ctx, s.config.Get().MediaPath, events)
	close(events)
	<-done

	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.IndexingRuns.WithLabelValues("cancelled").Inc()
		} else {
			metrics.IndexingRuns.WithLabelValues("failed").Inc()
		}
		s.broadcast(Event{Status: "error", Message: err.Error()})
		return nil, err
	}

	metrics.IndexingRuns.WithLabelValues("completed").Inc()
	metrics.IndexedTracks.WithLabelValues("added").Add(float64(len(report.Added)))
	metrics.IndexedTracks.WithLabelValues("removed").Add(float64(len(report.Removed)))
	metrics.IndexedTracks.WithLabelValues("unchanged").Add(float64(len(report.Unchanged)))
	return map[string]any{
		"added":     len(report.Added),
		"removed":   len(report.Removed),
		"unchanged": len(report.Unchanged),
		"msg":       report.Summary(),
	}, nil
}

// finish closes all remaining subscriber channels and clears the run state.
func (s *Service) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		close(sub)
	}
	s.subscribers = make(map[chan Event]struct{})
	s.running = false
	s.jobID = ""
}

// broadcast fans one event out to all subscribers without ever blocking the
// run. Intermediate progress events are dropped for slow subscribers; for
// terminal events the oldest buffered tick is evicted to make room, so every
// live subscriber still observes how the run ended.
func (s *Service) broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub <- event:
			continue
		default:
		}
		if event.Status == "progress" {
			slog.Debug("Service.broadcast: dropping progress event for slow subscriber")
			continue
		}
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- event:
		default:
		}
	}
}

// jobProgress maps a progress event onto the job registry's percent scale.
// Processing covers 0-90, cleanup 90-100.
func jobProgress(event Event) (int, string, bool) {
	if event.Status != "progress" || event.Total == 0 {
		return 0, "", false
	}
	switch event.Type {
	case PhaseProcessing:
		return event.Current * 90 / event.Total,
			fmt.Sprintf("Processing %d/%d", event.Current, event.Total), true
	case PhaseCleanup:
		return 90 + event.Current*10/event.Total,
			fmt.Sprintf("Removing stale entries %d/%d", event.Current, event.Total), true
	}
	return 0, "", false
}
