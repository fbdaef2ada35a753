package persona_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NethermindEth/aiai-relay/pkg/relay/persona"
)

type mockStore struct {
	findByUsername  func(ctx context.Context, username string) (*persona.Persona, error)
	listByUsernames func(ctx context.Context, usernames []string) ([]persona.Summary, error)
}

func (m *mockStore) FindByUsername(ctx context.Context, username string) (*persona.Persona, error) {
	return m.findByUsername(ctx, username)
}

func (m *mockStore) ListByUsernames(ctx context.Context, usernames []string) ([]persona.Summary, error) {
	return m.listByUsernames(ctx, usernames)
}

var sage = &persona.Persona{
	Username:  "sage",
	Name:      "Sage",
	Identity:  "a retired botanist",
	Knowledge: "ferns and mosses",
	Topic:     "garden design",
	VoiceTone: "calm and precise",
}

func TestResolver_SystemPrompt(t *testing.T) {
	t.Run("known username", func(t *testing.T) {
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				assert.Equal(t, "sage", username)
				return sage, nil
			},
		})

		systemPrompt := resolver.SystemPrompt(context.Background(), "sage")

		assert.Contains(t, systemPrompt, sage.Identity)
		assert.Contains(t, systemPrompt, sage.Knowledge)
		assert.Contains(t, systemPrompt, sage.Topic)
		assert.Contains(t, systemPrompt, sage.VoiceTone)
		assert.Equal(t, sage.SystemPrompt(), systemPrompt)
	})

	t.Run("unknown username", func(t *testing.T) {
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				return nil, persona.ErrNotFound
			},
		})

		assert.Equal(t, persona.DefaultSystemPrompt, resolver.SystemPrompt(context.Background(), "nobody"))
	})

	t.Run("datastore unavailable", func(t *testing.T) {
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				return nil, persona.ErrDatastoreUnavailable
			},
		})

		assert.Equal(t, persona.DefaultSystemPrompt, resolver.SystemPrompt(context.Background(), "sage"))
	})

	t.Run("empty username skips store", func(t *testing.T) {
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				t.Fatal("store should not be called")
				return nil, nil
			},
		})

		assert.Equal(t, persona.DefaultSystemPrompt, resolver.SystemPrompt(context.Background(), ""))
	})

	t.Run("found personas are cached", func(t *testing.T) {
		var calls atomic.Int32
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				calls.Add(1)
				return sage, nil
			},
		})

		for i := 0; i < 3; i++ {
			resolver.SystemPrompt(context.Background(), "sage")
		}

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("misses are not cached", func(t *testing.T) {
		var calls atomic.Int32
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				calls.Add(1)
				return nil, persona.ErrNotFound
			},
		})

		resolver.SystemPrompt(context.Background(), "nobody")
		resolver.SystemPrompt(context.Background(), "nobody")

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("concurrent misses share one lookup", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				calls.Add(1)
				<-release
				return sage, nil
			},
		})

		var wg sync.WaitGroup
		results := make([]string, 5)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = resolver.SystemPrompt(context.Background(), "sage")
			}(i)
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for _, result := range results {
			assert.Equal(t, sage.SystemPrompt(), result)
		}
	})
	t.Run("cancelled caller does not fail shared lookup", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				close(started)
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return sage, nil
			},
		})

		firstCtx, cancelFirst := context.WithCancel(context.Background())
		first := make(chan string)
		go func() { first <- resolver.SystemPrompt(firstCtx, "sage") }()
		<-started

		second := make(chan string)
		go func() { second <- resolver.SystemPrompt(context.Background(), "sage") }()
		time.Sleep(20 * time.Millisecond)

		cancelFirst()
		assert.Equal(t, persona.DefaultSystemPrompt, <-first)

		close(release)
		assert.Equal(t, sage.SystemPrompt(), <-second)
	})

	t.Run("cancelled caller returns without waiting for store", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		resolver := persona.NewResolver(&mockStore{
			findByUsername: func(ctx context.Context, username string) (*persona.Persona, error) {
				<-release
				return sage, nil
			},
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.Equal(t, persona.DefaultSystemPrompt, resolver.SystemPrompt(ctx, "sage"))
	})
}

func TestPersona_SystemPrompt(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		assert.Equal(t,
			"You are a retired botanist.\n"+
				"Your knowledge includes: ferns and mosses.\n"+
				"You specialize in: garden design.\n"+
				"Your voice tone is: calm and precise.\n"+
				"Please respond to the user in this voice tone and from this perspective.",
			sage.SystemPrompt(),
		)
	})

	t.Run("empty fields use defaults", func(t *testing.T) {
		systemPrompt := (&persona.Persona{Username: "blank"}).SystemPrompt()

		assert.Contains(t, systemPrompt, "You are an AI assistant.")
		assert.Contains(t, systemPrompt, "Your knowledge includes: general information.")
		assert.Contains(t, systemPrompt, "You specialize in: general assistance.")
		assert.Contains(t, systemPrompt, "Your voice tone is: professional and friendly.")
	})
}
