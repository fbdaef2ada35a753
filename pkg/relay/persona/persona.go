package persona

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("persona not found")
	ErrDatastoreUnavailable = errors.New("persona datastore unavailable")
)

const DefaultSystemPrompt = "You are a helpful AI assistant."

const (
	defaultIdentity  = "an AI assistant"
	defaultKnowledge = "general information"
	defaultTopic     = "general assistance"
	defaultVoiceTone = "professional and friendly"

	systemPromptTemplateTail = "Please respond to the user in this voice tone and from this perspective."
)

type Persona struct {
	Username  string `bson:"username" json:"username"`
	Name      string `bson:"name" json:"name"`
	Identity  string `bson:"identity" json:"identity"`
	Knowledge string `bson:"knowledge" json:"knowledge"`
	Topic     string `bson:"topic" json:"topic"`
	VoiceTone string `bson:"voice_tone" json:"voice_tone"`
}

type Summary struct {
	Username string `bson:"username" json:"username"`
	Name     string `bson:"name" json:"name"`
}

type Store interface {
	FindByUsername(ctx context.Context, username string) (*Persona, error)
	ListByUsernames(ctx context.Context, usernames []string) ([]Summary, error)
}

func (p *Persona) SystemPrompt() string {
	return fmt.Sprintf("You are %s.\nYour knowledge includes: %s.\nYou specialize in: %s.\nYour voice tone is: %s.\n%s",
		orDefault(p.Identity, defaultIdentity),
		orDefault(p.Knowledge, defaultKnowledge),
		orDefault(p.Topic, defaultTopic),
		orDefault(p.VoiceTone, defaultVoiceTone),
		systemPromptTemplateTail,
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
