package jobs

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// jobView is the JSON shape of a job; the in-memory Job carries a logger and
// cancellation state that never leave the process.
type jobView struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func viewOf(job *Job) jobView {
	return jobView{
		ID:        job.ID,
		Type:      job.Type,
		Name:      job.Name,
		Status:    job.Status,
		Progress:  job.Progress,
		Message:   job.Message,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Metadata:  job.Metadata,
	}
}

func (h *Handler) HandleListJobs(c *fiber.Ctx) error {
	jobs := h.service.GetJobs()
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, viewOf(job))
	}
	return c.JSON(fiber.Map{"jobs": views})
}

func (h *Handler) HandleJobStatus(c *fiber.Ctx) error {
	jobID := c.Params("id")
	job, exists := h.service.GetJob(jobID)
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(viewOf(job))
}

func (h *Handler) HandleJobLogs(c *fiber.Ctx) error {
	jobID := c.Params("id")
	job, exists := h.service.GetJob(jobID)
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}

	if job.LogPath == "" {
		return c.SendString("No logs for this job.")
	}

	logContent, err := os.ReadFile(job.LogPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read log file"})
	}

	c.Set("Content-Type", "text/plain")
	return c.Send(logContent)
}

func (h *Handler) HandleCleanupJobs(c *fiber.Ctx) error {
	maxAgeHours := c.QueryInt("max_age_hours", 24)
	h.service.CleanupOldJobs(time.Duration(maxAgeHours) * time.Hour)
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) HandleCancelJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if err := h.service.CancelJob(jobID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "cancelled", "job_id": jobID})
}
