package persona

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	systemPromptCacheSize = 1000
	systemPromptCacheTTL  = 1 * time.Hour
	lookupTimeout         = 30 * time.Second
)

// Resolver renders persona records into system prompts. Unknown usernames
// and datastore failures resolve to DefaultSystemPrompt without an error.
// Concurrent lookups of one username share a single store call that is not
// bound to any one caller's context.
type Resolver struct {
	store Store

	systemPromptCache *expirable.LRU[string, string]
	group             singleflight.Group
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:             store,
		systemPromptCache: expirable.NewLRU[string, string](systemPromptCacheSize, nil, systemPromptCacheTTL),
	}
}

func (r *Resolver) SystemPrompt(ctx context.Context, username string) string {
	if username == "" {
		return DefaultSystemPrompt
	}

	if systemPrompt, ok := r.systemPromptCache.Get(username); ok {
		return systemPrompt
	}

	lookup := r.group.DoChan(username, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		persona, err := r.store.FindByUsername(lookupCtx, username)
		switch {
		case errors.Is(err, ErrNotFound):
			slog.Info("persona not found, using default system prompt", "username", username)
			return DefaultSystemPrompt, nil
		case err != nil:
			slog.Warn("failed to load persona, using default system prompt", "username", username, "error", err)
			return DefaultSystemPrompt, nil
		}

		systemPrompt := persona.SystemPrompt()
		r.systemPromptCache.Add(username, systemPrompt)

		return systemPrompt, nil
	})

	select {
	case result := <-lookup:
		return result.Val.(string)
	case <-ctx.Done():
		slog.Info("persona lookup abandoned, using default system prompt", "username", username, "error", ctx.Err())
		return DefaultSystemPrompt
	}
}
