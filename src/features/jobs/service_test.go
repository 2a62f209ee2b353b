package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"fermata/src/features/config"
)

func newTestService() *Service {
	return NewService(&config.Jobs{Log: false})
}

func waitForStatus(t *testing.T, service *Service, jobID string, want JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := service.GetJob(jobID); ok && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := service.GetJob(jobID)
	t.Fatalf("job never reached %s, last seen: %+v", want, job)
	return nil
}

func TestService_StartJob_Completes(t *testing.T) {
	service := newTestService()

	jobID, err := service.StartJob("test", "test job", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		progress(50, "halfway")
		return map[string]any{"items": 3}, nil
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	job := waitForStatus(t, service, jobID, JobStatusCompleted)
	if job.Progress != 100 {
		t.Errorf("expected progress 100, got %d", job.Progress)
	}
	if job.Metadata["items"] != 3 {
		t.Errorf("expected stats merged into metadata, got %v", job.Metadata)
	}
}

func TestService_StartJob_Fails(t *testing.T) {
	service := newTestService()

	jobID, err := service.StartJob("test", "failing job", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		return nil, errors.New("boom")
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	job := waitForStatus(t, service, jobID, JobStatusFailed)
	if job.Message != "boom" {
		t.Errorf("expected failure message, got %q", job.Message)
	}
}

func TestService_StartJob_RejectsSameTypeWhileRunning(t *testing.T) {
	service := newTestService()
	release := make(chan struct{})

	jobID, err := service.StartJob("test", "long job", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		<-release
		return nil, nil
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := service.StartJob("test", "second", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		return nil, nil
	}); !errors.Is(err, ErrTypeBusy) {
		t.Fatalf("expected ErrTypeBusy, got %v", err)
	}

	// A different type is fine in parallel.
	otherID, err := service.StartJob("other", "other job", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("different type should start: %v", err)
	}
	waitForStatus(t, service, otherID, JobStatusCompleted)

	close(release)
	waitForStatus(t, service, jobID, JobStatusCompleted)

	if !service.IsJobTypeRunning("test") {
		// Running flag cleared, a new job of the type must start.
		if _, err := service.StartJob("test", "third", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
			return nil, nil
		}); err != nil {
			t.Fatalf("restart after completion failed: %v", err)
		}
	}
}

func TestService_CancelJob(t *testing.T) {
	service := newTestService()
	started := make(chan struct{})

	jobID, err := service.StartJob("test", "cancellable", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	<-started
	if err := service.CancelJob(jobID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	waitForStatus(t, service, jobID, JobStatusCancelled)
}

func TestService_CancelJob_Unknown(t *testing.T) {
	service := newTestService()
	if err := service.CancelJob("missing"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestService_UpdateJobProgress_DroppedAfterTerminal(t *testing.T) {
	service := newTestService()

	jobID, err := service.StartJob("test", "quick", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	job := waitForStatus(t, service, jobID, JobStatusCompleted)

	service.UpdateJobProgress(jobID, 10, "stale update")
	if job.Progress != 100 {
		t.Errorf("terminal progress overwritten: %d", job.Progress)
	}
}

func TestService_GetJobs_NewestFirst(t *testing.T) {
	service := newTestService()

	noop := func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		return nil, nil
	}
	firstID, _ := service.StartJob("a", "first", nil, noop)
	waitForStatus(t, service, firstID, JobStatusCompleted)
	time.Sleep(10 * time.Millisecond)
	secondID, _ := service.StartJob("b", "second", nil, noop)
	waitForStatus(t, service, secondID, JobStatusCompleted)

	jobs := service.GetJobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != secondID {
		t.Errorf("expected newest job first, got %s", jobs[0].Name)
	}
}

func TestService_CleanupOldJobs(t *testing.T) {
	service := newTestService()

	jobID, _ := service.StartJob("test", "old", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		return nil, nil
	})
	waitForStatus(t, service, jobID, JobStatusCompleted)

	service.CleanupOldJobs(0)
	if _, ok := service.GetJob(jobID); ok {
		t.Error("expected terminal job to be removed")
	}
}

func TestService_CleanupOldJobs_KeepsRunning(t *testing.T) {
	service := newTestService()
	release := make(chan struct{})

	jobID, _ := service.StartJob("test", "active", nil, func(ctx context.Context, job *Job, progress func(int, string)) (map[string]any, error) {
		<-release
		return nil, nil
	})

	service.CleanupOldJobs(0)
	if _, ok := service.GetJob(jobID); !ok {
		t.Error("running job must survive cleanup")
	}

	close(release)
	waitForStatus(t, service, jobID, JobStatusCompleted)
}
