package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"fermata/src/features/config"
	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// ErrTypeBusy is returned when a job of the same type is already running.
// Long-running maintenance work like indexing is strictly serialized per
// type; callers surface this as a conflict rather than queueing.
var ErrTypeBusy = errors.New("a job of this type is already running")

// Job is one tracked unit of background work.
type Job struct {
	ID         string
	Type       string
	Name       string
	Status     JobStatus
	Progress   int
	Message    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Metadata   map[string]any
	Logger     *slog.Logger
	LogPath    string
	cancelFunc context.CancelFunc
	cancelled  bool
}

// Task is the work a job performs. The returned map is merged into the job
// metadata, even on error. progressUpdater may be called freely; updates
// after the job reaches a terminal state are dropped.
type Task func(ctx context.Context, job *Job, progressUpdater func(int, string)) (map[string]any, error)

// Service tracks background jobs in memory, one running job per type.
type Service struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	config *config.Jobs
}

func NewService(cfg *config.Jobs) *Service {
	return &Service{
		jobs:   make(map[string]*Job),
		config: cfg,
	}
}

// StartJob creates a job and runs task in a goroutine. It fails with
// ErrTypeBusy when a job of the same type is still running.
func (s *Service) StartJob(jobType string, name string, metadata map[string]any, task Task) (string, error) {
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Name:      name,
		Status:    JobStatusRunning,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Metadata:  metadata,
	}

	if s.config.Log {
		logDir := s.config.LogPath
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
		logName := fmt.Sprintf("%s-%s.log", time.Now().Format("2006-01-02"), job.ID)
		logPath := filepath.Join(logDir, logName)
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return "", fmt.Errorf("failed to open log file: %w", err)
		}
		job.Logger = slog.New(slog.NewTextHandler(logFile, nil))
		job.LogPath = logPath
	} else {
		job.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.mu.Lock()
	if s.isJobTypeRunning(jobType) {
		s.mu.Unlock()
		return "", ErrTypeBusy
	}
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.executeJob(job, task)
	return job.ID, nil
}

func (s *Service) executeJob(job *Job, task Task) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	job.cancelFunc = cancel
	s.mu.Unlock()
	defer cancel()

	job.Logger.Info("Starting job", "name", job.Name)

	progressUpdater := func(percentage int, status string) {
		s.UpdateJobProgress(job.ID, percentage, status)
		job.Logger.Info("Progress", "percentage", percentage, "status", status)
	}

	stats, err := task(ctx, job, progressUpdater)
	if stats != nil {
		s.mu.Lock()
		if job.Metadata == nil {
			job.Metadata = make(map[string]any)
		}
		maps.Copy(job.Metadata, stats)
		s.mu.Unlock()
	}

	s.mu.Lock()
	cancelled := job.cancelled
	s.mu.Unlock()

	switch {
	case cancelled || errors.Is(err, context.Canceled):
		s.updateJobStatus(job.ID, JobStatusCancelled, "Job cancelled")
	case err != nil:
		job.Logger.Error("Error during job execution", "error", err)
		s.updateJobStatus(job.ID, JobStatusFailed, err.Error())
	default:
		job.Logger.Info("Job finished successfully", "name", job.Name)
		s.updateJobStatus(job.ID, JobStatusCompleted, "Job completed successfully")
	}
	s.executeWebhook(job)
}

func (s *Service) updateJobStatus(jobID string, status JobStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, exists := s.jobs[jobID]; exists {
		job.Status = status
		job.Message = message
		job.UpdatedAt = time.Now()
		if status == JobStatusCompleted {
			job.Progress = 100
		}
	}
}

// UpdateJobProgress records progress for a running job.
func (s *Service) UpdateJobProgress(jobID string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, exists := s.jobs[jobID]; exists {
		if job.Status != JobStatusRunning {
			return
		}
		job.Progress = progress
		job.Message = message
		job.UpdatedAt = time.Now()
	}
}

// CancelJob requests cooperative cancellation of a running job.
func (s *Service) CancelJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return errors.New("job not found")
	}

	job.cancelled = true
	job.Status = JobStatusCancelled
	job.Message = "Job cancelled"
	job.UpdatedAt = time.Now()

	if job.cancelFunc != nil {
		job.cancelFunc()
	}
	return nil
}

func (s *Service) GetJob(jobID string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	return job, exists
}

// GetJobs returns all tracked jobs, newest first.
func (s *Service) GetJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// IsJobTypeRunning reports whether a job of the given type is running.
func (s *Service) IsJobTypeRunning(jobType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isJobTypeRunning(jobType)
}

func (s *Service) isJobTypeRunning(jobType string) bool {
	for _, job := range s.jobs {
		if job.Type == jobType && job.Status == JobStatusRunning {
			return true
		}
	}
	return false
}

// CleanupOldJobs drops terminal jobs older than maxAge and their log files.
func (s *Service) CleanupOldJobs(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > maxAge && job.Status != JobStatusRunning {
			if job.LogPath != "" {
				os.Remove(job.LogPath)
			}
			delete(s.jobs, id)
		}
	}
}

// executeWebhook runs the configured webhook command when a job reaches a
// terminal state and its type is enabled for notifications.
func (s *Service) executeWebhook(job *Job) {
	if !s.config.Webhooks.Enabled {
		return
	}

	shouldNotify := false
	for _, jobType := range s.config.Webhooks.JobTypes {
		if jobType == job.Type || jobType == "*" {
			shouldNotify = true
			break
		}
	}
	if !shouldNotify {
		return
	}

	message := job.Message
	if job.Metadata != nil {
		if msg, ok := job.Metadata["msg"].(string); ok && msg != "" {
			message = msg
		}
	}

	data := struct {
		Name     string
		Type     string
		Status   string
		Message  string
		Duration string
	}{
		Name:     job.Name,
		Type:     job.Type,
		Status:   string(job.Status),
		Message:  message,
		Duration: time.Since(job.CreatedAt).Round(time.Second).String(),
	}

	tmpl, err := template.New("webhook").Parse(s.config.Webhooks.Command)
	if err != nil {
		job.Logger.Error("Failed to parse webhook template", "error", err)
		return
	}

	var command strings.Builder
	if err := tmpl.Execute(&command, data); err != nil {
		job.Logger.Error("Failed to execute webhook template", "error", err)
		return
	}

	go s.executeWebhookCommand(command.String(), job)
}

func (s *Service) executeWebhookCommand(command string, job *Job) {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Env = os.Environ()

	timer := time.AfterFunc(30*time.Second, func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	})
	defer timer.Stop()

	if err := cmd.Run(); err != nil {
		job.Logger.Error("Webhook execution failed", "command", command, "error", err)
	} else {
		job.Logger.Info("Webhook executed successfully", "command", command)
	}
}
