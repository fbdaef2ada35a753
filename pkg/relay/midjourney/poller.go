package midjourney

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxAttempts  = 30
)

type Poller struct {
	fetcher StatusFetcher

	pollInterval time.Duration
	maxAttempts  int
}

type PollerOptions struct {
	Fetcher      StatusFetcher
	PollInterval time.Duration
	MaxAttempts  int
}

func NewPoller(opts PollerOptions) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	return &Poller{
		fetcher:      opts.Fetcher,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
	}
}

// Wait polls the task until it reaches a terminal state, the attempt budget
// runs out or ctx is done. Failed status checks count as attempts.
func (p *Poller) Wait(ctx context.Context, taskID string) (*Task, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		task, err := p.fetcher.Status(ctx, taskID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("failed to check task status", "taskId", taskID, "attempt", attempt, "error", err)
		case task.Status == StatusCompleted:
			if task.ImageURL == "" {
				return nil, fmt.Errorf("task %s: %w", taskID, ErrNoImage)
			}
			return task, nil
		case task.Status == StatusFailed:
			return nil, &TaskFailedError{TaskID: taskID, Message: task.Error}
		default:
			slog.Debug("task not finished", "taskId", taskID, "status", task.Status, "attempt", attempt)
		}

		if attempt == p.maxAttempts {
			break
		}

		select {
		case <-time.After(p.pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("task %s: %w after %d attempts", taskID, ErrTimedOut, p.maxAttempts)
}

func (p *Poller) PollInterval() time.Duration {
	return p.pollInterval
}

func (p *Poller) MaxAttempts() int {
	return p.maxAttempts
}
