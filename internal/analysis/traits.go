package analysis

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/mirrorme/mirrord/internal/llm"
	"github.com/mirrorme/mirrord/internal/profile"
)

const traitPromptHeader = `You are an expert personality analyst. Analyze the following messages from a user and extract their personality traits, communication style, and preferences.

User Messages:
`

const traitPromptSchema = `

Respond with ONLY a JSON object, no additional text, with exactly this structure:
{
  "communication_style": {
    "tone": "casual|formal|mixed",
    "formality_level": 1-10,
    "enthusiasm_level": 1-10,
    "typical_sentence_length": "short|medium|long",
    "uses_emojis": true|false,
    "uses_slang": true|false
  },
  "personality_traits": {
    "openness": 1-10,
    "conscientiousness": 1-10,
    "extraversion": 1-10,
    "agreeableness": 1-10,
    "neuroticism": 1-10
  },
  "interests_and_topics": ["topics they frequently discuss"],
  "favorite_phrases": ["phrases they use often"],
  "emotional_patterns": {
    "default_mood": "positive|neutral|negative",
    "emotional_range": 1-10,
    "stress_indicators": ["list of indicators"]
  },
  "linguistic_patterns": {
    "avg_words_per_message": number,
    "complexity_level": 1-10,
    "question_frequency": 1-10
  }
}`

// Analyzer extracts a structured personality profile from user messages via
// one completion request. Analysis is strictly best-effort: every failure
// degrades to the default profile instead of propagating.
type Analyzer struct {
	client      llm.Client
	temperature float64
}

func NewAnalyzer(client llm.Client, temperature float64) *Analyzer {
	return &Analyzer{client: client, temperature: temperature}
}

// Analyze returns a profile delta covering every trait section. Empty input
// skips the provider call entirely and returns the defaults.
func (a *Analyzer) Analyze(ctx context.Context, messages []string) profile.Delta {
	if len(messages) == 0 {
		return defaultDelta()
	}

	prompt := traitPromptHeader + strings.Join(messages, "\n") + traitPromptSchema
	raw, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		Temperature: a.temperature,
	})
	if err != nil {
		log.Printf("personality analysis failed, using defaults: %v", err)
		return defaultDelta()
	}

	delta, err := parseTraitResponse(raw)
	if err != nil {
		log.Printf("personality analysis response unusable, using defaults: %v", err)
		return defaultDelta()
	}
	return delta
}

func defaultDelta() profile.Delta {
	d := profile.FullDelta(profile.Default())
	// Statistics come from the aggregator, never from trait extraction.
	d.MessageStatistics = nil
	return d
}

func parseTraitResponse(raw string) (profile.Delta, error) {
	var delta profile.Delta
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &delta); err != nil {
		return profile.Delta{}, err
	}
	if delta.CommunicationStyle == nil || delta.PersonalityTraits == nil ||
		delta.EmotionalPatterns == nil || delta.LinguisticPatterns == nil {
		return profile.Delta{}, errMissingSections
	}
	// Trait extraction never owns message statistics.
	delta.MessageStatistics = nil
	return delta, nil
}

var errMissingSections = jsonError("response is missing required profile sections")

type jsonError string

func (e jsonError) Error() string { return string(e) }

// extractJSONObject tolerates markdown code fences and prose around the
// object by slicing from the first '{' to the last '}'.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}
