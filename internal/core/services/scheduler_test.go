package services

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/logger"
)

func schedulerPipelines() []domain.Pipeline {
	return []domain.Pipeline{
		{Name: domain.PipelineRegulations, Collection: "regulations"},
		{Name: domain.PipelineProcedures, Collection: "procedures"},
		{Name: domain.PipelineCases, Collection: "cases"},
		{Name: domain.PipelineDocuments, Collection: "documents"},
	}
}

func TestSchedulerTrigger(t *testing.T) {
	t.Run("unknown pipeline", func(t *testing.T) {
		s := NewIntervalScheduler(&mockRunner{pipelines: schedulerPipelines()}, nil)
		_, err := s.Trigger(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrUnknownPipeline)
	})

	t.Run("runs the pipeline and updates state", func(t *testing.T) {
		runner := &mockRunner{pipelines: schedulerPipelines()}
		s := NewIntervalScheduler(runner, nil)

		summary, err := s.Trigger(context.Background(), domain.PipelineCases)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, summary.Status)
		assert.Equal(t, 1, runner.runCount(domain.PipelineCases))

		status := s.Status()
		for _, p := range status.Pipelines {
			if p.Name == domain.PipelineCases {
				assert.False(t, p.Running)
				assert.Equal(t, domain.RunCompleted, p.LastStatus)
				assert.False(t, p.LastRun.IsZero())
			}
		}
	})

	t.Run("rejects concurrent runs of the same pipeline", func(t *testing.T) {
		runner := &mockRunner{pipelines: schedulerPipelines(), delay: 100 * time.Millisecond}
		s := NewIntervalScheduler(runner, nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Trigger(context.Background(), domain.PipelineCases)
		}()

		// Give the first trigger time to take the lock.
		time.Sleep(20 * time.Millisecond)
		_, err := s.Trigger(context.Background(), domain.PipelineCases)
		assert.ErrorIs(t, err, domain.ErrRunInProgress)
		wg.Wait()

		assert.Equal(t, 1, runner.runCount(domain.PipelineCases))
	})

	t.Run("lock released after failed run", func(t *testing.T) {
		runner := &mockRunner{pipelines: schedulerPipelines(), runErr: errBoom}
		s := NewIntervalScheduler(runner, nil)

		_, err := s.Trigger(context.Background(), domain.PipelineCases)
		require.Error(t, err)

		runner.runErr = nil
		_, err = s.Trigger(context.Background(), domain.PipelineCases)
		assert.NoError(t, err)
	})
}

func TestSchedulerLogsLockedSkips(t *testing.T) {
	capture := func(t *testing.T) *bytes.Buffer {
		t.Helper()
		var buf bytes.Buffer
		prev := logger.IsVerbose()
		logger.SetVerbose(true)
		logger.SetOutput(&buf)
		t.Cleanup(func() {
			logger.SetVerbose(prev)
			logger.SetOutput(os.Stderr)
		})
		return &buf
	}

	t.Run("due pipeline with run in flight", func(t *testing.T) {
		runner := &mockRunner{pipelines: schedulerPipelines()[:1]}
		s := NewIntervalScheduler(runner, nil)
		s.states[0].running = true
		buf := capture(t)

		s.checkAndRunDue(context.Background())

		assert.Equal(t, 0, runner.runCount(domain.PipelineRegulations))
		assert.Contains(t, buf.String(), "still in progress")
	})

	t.Run("rejected trigger", func(t *testing.T) {
		runner := &mockRunner{pipelines: schedulerPipelines()[:1]}
		s := NewIntervalScheduler(runner, nil)
		s.states[0].running = true
		buf := capture(t)

		_, err := s.Trigger(context.Background(), domain.PipelineRegulations)

		assert.ErrorIs(t, err, domain.ErrRunInProgress)
		assert.Contains(t, buf.String(), "already in progress")
	})
}

func TestSchedulerStagger(t *testing.T) {
	runner := &mockRunner{pipelines: schedulerPipelines()}
	s := NewIntervalScheduler(runner, nil)
	base := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Start(ctx)
	}()

	// Wait for the startup check to fire the first (offset zero) pipeline.
	require.Eventually(t, func() bool {
		return runner.runCount(domain.PipelineRegulations) == 1
	}, time.Second, 10*time.Millisecond)

	status := s.Status()
	assert.True(t, status.Running)
	require.Len(t, status.Pipelines, 4)

	// Later pipelines are staggered into the future and have not fired.
	for i, p := range status.Pipelines[1:] {
		offset := time.Duration(i+1) * domain.StaggerOffset
		assert.Equal(t, base.Add(offset), p.NextRun, p.Name)
		assert.Equal(t, 0, runner.runCount(p.Name), p.Name)
	}

	cancel()
	<-done
}

func TestSchedulerStop(t *testing.T) {
	runner := &mockRunner{pipelines: schedulerPipelines()[:1], delay: 50 * time.Millisecond}
	s := NewIntervalScheduler(runner, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Start(context.Background())
	}()

	require.Eventually(t, func() bool {
		return runner.runCount(domain.PipelineRegulations) >= 1
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	<-done
	assert.False(t, s.Status().Running)

	// Idempotent.
	s.Stop()
}

func TestSchedulerPrunesHistory(t *testing.T) {
	runner := &mockRunner{pipelines: schedulerPipelines()}
	runs := &mockRunStore{}
	s := NewIntervalScheduler(runner, runs)

	_, err := s.Trigger(context.Background(), domain.PipelineCases)
	require.NoError(t, err)
	assert.Equal(t, 1, runs.pruned)
}
