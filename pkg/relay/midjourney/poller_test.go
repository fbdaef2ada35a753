package midjourney_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/aiai-relay/pkg/relay/midjourney"
)

type mockStatusFetcher struct {
	mu    sync.Mutex
	calls int

	status func(call int, taskID string) (*midjourney.Task, error)
}

func (m *mockStatusFetcher) Status(ctx context.Context, taskID string) (*midjourney.Task, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	return m.status(call, taskID)
}

func (m *mockStatusFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func processing(taskID string) *midjourney.Task {
	return &midjourney.Task{ID: taskID, Status: midjourney.StatusProcessing}
}

func TestNewPoller_Defaults(t *testing.T) {
	poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: &mockStatusFetcher{}})

	assert.Equal(t, midjourney.DefaultPollInterval, poller.PollInterval())
	assert.Equal(t, midjourney.DefaultMaxAttempts, poller.MaxAttempts())
}

func TestPoller_Wait(t *testing.T) {
	const delay = 20 * time.Millisecond

	t.Run("completes after n polls", func(t *testing.T) {
		const n = 4

		fetcher := &mockStatusFetcher{
			status: func(call int, taskID string) (*midjourney.Task, error) {
				if call < n {
					return processing(taskID), nil
				}
				return &midjourney.Task{ID: taskID, Status: midjourney.StatusCompleted, ImageURL: "https://img.example/1.png"}, nil
			},
		}
		poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: fetcher, PollInterval: delay, MaxAttempts: 10})

		start := time.Now()
		task, err := poller.Wait(context.Background(), "task-1")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, "https://img.example/1.png", task.ImageURL)
		assert.Equal(t, n, fetcher.Calls())
		assert.GreaterOrEqual(t, elapsed, (n-1)*delay)
		assert.Less(t, elapsed, n*delay+time.Second)
	})

	t.Run("times out after max attempts", func(t *testing.T) {
		fetcher := &mockStatusFetcher{
			status: func(call int, taskID string) (*midjourney.Task, error) {
				return processing(taskID), nil
			},
		}
		poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: fetcher, PollInterval: time.Millisecond, MaxAttempts: 5})

		_, err := poller.Wait(context.Background(), "task-1")

		assert.ErrorIs(t, err, midjourney.ErrTimedOut)
		assert.Equal(t, 5, fetcher.Calls())
	})

	t.Run("fails immediately on failed status", func(t *testing.T) {
		const k = 3

		fetcher := &mockStatusFetcher{
			status: func(call int, taskID string) (*midjourney.Task, error) {
				if call == k {
					return &midjourney.Task{ID: taskID, Status: midjourney.StatusFailed, Error: "banned prompt"}, nil
				}
				return processing(taskID), nil
			},
		}
		poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: fetcher, PollInterval: time.Millisecond, MaxAttempts: 10})

		_, err := poller.Wait(context.Background(), "task-1")

		var failedErr *midjourney.TaskFailedError
		require.ErrorAs(t, err, &failedErr)
		assert.Equal(t, "task-1", failedErr.TaskID)
		assert.Equal(t, "banned prompt", failedErr.Message)
		assert.NotErrorIs(t, err, midjourney.ErrTimedOut)
		assert.Equal(t, k, fetcher.Calls())
	})

	t.Run("status errors keep polling", func(t *testing.T) {
		fetcher := &mockStatusFetcher{
			status: func(call int, taskID string) (*midjourney.Task, error) {
				if call < 3 {
					return nil, midjourney.ErrStatusFailed
				}
				return &midjourney.Task{ID: taskID, Status: midjourney.StatusCompleted, ImageURL: "https://img.example/1.png"}, nil
			},
		}
		poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: fetcher, PollInterval: time.Millisecond, MaxAttempts: 5})

		task, err := poller.Wait(context.Background(), "task-1")

		require.NoError(t, err)
		assert.Equal(t, midjourney.StatusCompleted, task.Status)
		assert.Equal(t, 3, fetcher.Calls())
	})

	t.Run("completed without image", func(t *testing.T) {
		fetcher := &mockStatusFetcher{
			status: func(call int, taskID string) (*midjourney.Task, error) {
				return &midjourney.Task{ID: taskID, Status: midjourney.StatusCompleted}, nil
			},
		}
		poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: fetcher, PollInterval: time.Millisecond, MaxAttempts: 5})

		_, err := poller.Wait(context.Background(), "task-1")

		assert.ErrorIs(t, err, midjourney.ErrNoImage)
		assert.Equal(t, 1, fetcher.Calls())
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		fetcher := &mockStatusFetcher{
			status: func(call int, taskID string) (*midjourney.Task, error) {
				return processing(taskID), nil
			},
		}
		poller := midjourney.NewPoller(midjourney.PollerOptions{Fetcher: fetcher, PollInterval: time.Hour, MaxAttempts: 10})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := poller.Wait(ctx, "task-1")

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, fetcher.Calls())
	})
}
