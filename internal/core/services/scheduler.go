package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Ensure IntervalScheduler implements the interface.
var _ driving.Scheduler = (*IntervalScheduler)(nil)

// runHistoryKeep bounds how many run summaries are retained per pipeline.
const runHistoryKeep = 100

// pipelineState tracks one pipeline's scheduling state. The running
// flag is the per-pipeline lock that guarantees non-overlap between
// scheduled and triggered runs.
type pipelineState struct {
	pipeline   domain.Pipeline
	running    bool
	nextRun    time.Time
	lastRun    time.Time
	lastStatus domain.RunStatus
}

// IntervalScheduler runs each configured pipeline on its interval. The
// first run of each pipeline is staggered by its position so startup
// does not hit the drive and the embedding service all at once.
type IntervalScheduler struct {
	runner driving.PipelineRunner
	runs   driven.RunStore

	mu      sync.Mutex
	states  []*pipelineState
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// now is swappable for tests.
	now func() time.Time
}

// NewIntervalScheduler creates a scheduler over the runner's pipelines.
// The run store is optional and only used to prune history.
func NewIntervalScheduler(runner driving.PipelineRunner, runs driven.RunStore) *IntervalScheduler {
	s := &IntervalScheduler{
		runner: runner,
		runs:   runs,
		now:    time.Now,
	}
	for _, p := range runner.Pipelines() {
		s.states = append(s.states, &pipelineState{pipeline: p})
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled. A second concurrent call is a
// no-op.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopCh = make(chan struct{})

	// Stagger the initial runs: pipeline i first fires i offsets from now.
	base := s.now()
	for i, st := range s.states {
		st.nextRun = base.Add(time.Duration(i) * domain.StaggerOffset)
	}
	s.mu.Unlock()

	logger.Info("Scheduler started with %d pipelines", len(s.states))

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	s.checkAndRunDue(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDue(ctx)
		}
	}
}

// Stop halts the loop and waits for in-flight runs to finish.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// Trigger requests an immediate run of one pipeline. The run executes
// synchronously and respects the same per-pipeline lock as scheduled
// runs.
func (s *IntervalScheduler) Trigger(ctx context.Context, pipeline string) (*domain.RunSummary, error) {
	st := s.state(pipeline)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPipeline, pipeline)
	}
	if !s.acquire(st) {
		logger.Info("Trigger of %s rejected, run already in progress", pipeline)
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, pipeline)
	}
	defer s.release(st)

	return s.execute(ctx, st)
}

// Status reports the scheduler and per-pipeline state.
func (s *IntervalScheduler) Status() domain.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.SchedulerStatus{Running: s.started}
	for _, st := range s.states {
		status.Pipelines = append(status.Pipelines, domain.PipelineStatus{
			Name:       st.pipeline.Name,
			Running:    st.running,
			NextRun:    st.nextRun,
			LastRun:    st.lastRun,
			LastStatus: st.lastStatus,
		})
	}
	return status
}

// checkAndRunDue launches a goroutine for every pipeline whose next run
// time has arrived and which is not already running.
func (s *IntervalScheduler) checkAndRunDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*pipelineState
	for _, st := range s.states {
		if st.nextRun.After(now) {
			continue
		}
		if st.running {
			logger.Info("Pipeline %s due but previous run still in progress, skipping", st.pipeline.Name)
			continue
		}
		st.running = true
		due = append(due, st)
	}
	s.mu.Unlock()

	for _, st := range due {
		st := st
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release(st)
			if _, err := s.execute(ctx, st); err != nil {
				logger.Warn("Scheduled run of %s failed: %v", st.pipeline.Name, err)
			}
		}()
	}
}

// execute runs the pipeline and advances its schedule. The caller must
// hold the pipeline lock.
func (s *IntervalScheduler) execute(ctx context.Context, st *pipelineState) (*domain.RunSummary, error) {
	started := s.now()
	summary, err := s.runner.Run(ctx, st.pipeline.Name, driving.RunOptions{})

	s.mu.Lock()
	st.lastRun = started
	st.nextRun = s.now().Add(st.pipeline.EffectiveInterval())
	if summary != nil {
		st.lastStatus = summary.Status
	} else {
		st.lastStatus = domain.RunFailed
	}
	s.mu.Unlock()

	if s.runs != nil {
		if pruneErr := s.runs.PruneRuns(ctx, runHistoryKeep); pruneErr != nil {
			logger.Warn("Failed to prune run history: %v", pruneErr)
		}
	}
	return summary, err
}

// acquire takes the pipeline lock, returning false when already held.
func (s *IntervalScheduler) acquire(st *pipelineState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.running {
		return false
	}
	st.running = true
	return true
}

// release frees the pipeline lock. Always deferred so a panicking run
// cannot wedge the pipeline forever.
func (s *IntervalScheduler) release(st *pipelineState) {
	s.mu.Lock()
	st.running = false
	s.mu.Unlock()
}

func (s *IntervalScheduler) state(name string) *pipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.states {
		if st.pipeline.Name == name {
			return st
		}
	}
	return nil
}
