package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NethermindEth/aiai-relay/pkg/relay/midjourney"
)

const (
	StatusSuccess    = "success"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusError      = "error"

	imageReadyText      = "Here's the image you requested:"
	imagePendingText    = "Your image is being generated."
	imagePendingMessage = "Image generation in progress, check the status with the task id."
)

var (
	ErrImageSubmission = errors.New("failed to create image generation task")
	ErrImageGeneration = errors.New("failed to generate image")
	ErrTextGeneration  = errors.New("failed to generate text")
)

type TextRequest struct {
	Prompt        string
	Model         string
	AgentUsername string
}

type Reply struct {
	Status  string     `json:"status"`
	Data    *ReplyData `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
}

type ReplyData struct {
	Text     string `json:"text"`
	IsImage  bool   `json:"is_image"`
	ImageUrl string `json:"image_url,omitempty"`
	IpfsHash string `json:"ipfs_hash,omitempty"`
	TaskId   string `json:"task_id,omitempty"`
}

// GenerateText answers the prompt with text, or with an image when the
// classifier flags it. Image requests block until the task finishes or the
// wait deadline passes, in which case a processing reply is returned.
func (r *Relay) GenerateText(ctx context.Context, req TextRequest) (*Reply, error) {
	if !r.classifier.IsImageRequest(req.Prompt) {
		return r.generateTextReply(ctx, req)
	}

	taskID, err := r.submitImage(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	task, err := r.awaitImage(ctx, taskID)
	switch {
	case isStillProcessing(err):
		slog.Info("image not ready before wait deadline", "taskId", taskID, "error", err)
		return pendingImageReply(taskID), nil
	case err != nil:
		slog.Error("failed to generate image", "taskId", taskID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrImageGeneration, err)
	}

	return &Reply{
		Status: StatusSuccess,
		Data: &ReplyData{
			Text:     imageReadyText,
			IsImage:  true,
			ImageUrl: task.ImageURL,
			IpfsHash: r.mirror.Pin(ctx, taskID, task.ImageURL),
		},
	}, nil
}

// RunWorkflow is GenerateText with the image branch deferred: it returns as
// soon as the task is submitted.
func (r *Relay) RunWorkflow(ctx context.Context, req TextRequest) (*Reply, error) {
	if !r.classifier.IsImageRequest(req.Prompt) {
		return r.generateTextReply(ctx, req)
	}

	taskID, err := r.submitImage(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	return pendingImageReply(taskID), nil
}

func (r *Relay) generateTextReply(ctx context.Context, req TextRequest) (*Reply, error) {
	systemPrompt := r.personaResolver.SystemPrompt(ctx, req.AgentUsername)

	text, err := r.textGenerator.Generate(ctx, req.Model, systemPrompt, req.Prompt)
	if err != nil {
		slog.Error("failed to generate text", "model", req.Model, "agentUsername", req.AgentUsername, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTextGeneration, err)
	}

	return &Reply{
		Status: StatusSuccess,
		Data: &ReplyData{
			Text:    text,
			IsImage: false,
		},
	}, nil
}

func (r *Relay) submitImage(ctx context.Context, prompt string) (string, error) {
	taskID, err := r.imageClient.Submit(ctx, prompt)
	if err != nil {
		slog.Error("failed to create image generation task", "error", err)
		return "", fmt.Errorf("%w: %w", ErrImageSubmission, err)
	}

	slog.Info("created image generation task", "taskId", taskID)

	return taskID, nil
}

// awaitImage runs the poll loop on the wait pool so that blocking waits are
// bounded across requests. It gives up at the relay's wait timeout.
func (r *Relay) awaitImage(ctx context.Context, taskID string) (*midjourney.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, r.waitTimeout)
	defer cancel()

	result := r.waitPool.SubmitErr(func() (*midjourney.Task, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return r.poller.Wait(ctx, taskID)
	})

	select {
	case <-result.Done():
		return result.Wait()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isStillProcessing(err error) bool {
	return errors.Is(err, midjourney.ErrTimedOut) || errors.Is(err, context.DeadlineExceeded)
}

func pendingImageReply(taskID string) *Reply {
	return &Reply{
		Status: StatusProcessing,
		Data: &ReplyData{
			Text:    imagePendingText,
			IsImage: true,
			TaskId:  taskID,
		},
		Message: imagePendingMessage,
	}
}
