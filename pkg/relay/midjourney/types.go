package midjourney

import (
	"errors"
	"fmt"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Task struct {
	ID       string
	Status   TaskStatus
	ImageURL string
	Error    string
}

var (
	ErrEmptyPrompt      = errors.New("prompt is required")
	ErrSubmissionFailed = errors.New("task submission failed")
	ErrStatusFailed     = errors.New("task status check failed")
	ErrTimedOut         = errors.New("task timed out")
	ErrNoImage          = errors.New("completed task has no image url")
)

type TaskFailedError struct {
	TaskID  string
	Message string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Message)
}

const (
	successCode = 200

	modelMidjourney    = "midjourney"
	taskTypeImagine    = "imagine"
	aspectRatio        = "1:1"
	processModeFast    = "fast"
	serviceModePrivate = "private"
)

type imagineRequest struct {
	Model    string       `json:"model"`
	TaskType string       `json:"task_type"`
	Input    imagineInput `json:"input"`
	Config   taskConfig   `json:"config"`
}

type imagineInput struct {
	Prompt          string `json:"prompt"`
	AspectRatio     string `json:"aspect_ratio"`
	ProcessMode     string `json:"process_mode"`
	SkipPromptCheck bool   `json:"skip_prompt_check"`
}

type taskConfig struct {
	ServiceMode   string        `json:"service_mode"`
	WebhookConfig webhookConfig `json:"webhook_config"`
}

type webhookConfig struct {
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

type taskEnvelope struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    taskData `json:"data"`
}

type taskData struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Output struct {
		ImageURL string `json:"image_url"`
	} `json:"output"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (d *taskData) toTask() *Task {
	return &Task{
		ID:       d.TaskID,
		Status:   TaskStatus(d.Status),
		ImageURL: d.Output.ImageURL,
		Error:    d.Error.Message,
	}
}
