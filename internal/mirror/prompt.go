package mirror

import (
	"fmt"
	"strings"

	"github.com/mirrorme/mirrord/internal/memory"
	"github.com/mirrorme/mirrord/internal/profile"
)

const basePrompt = `You are MirrorMe, an AI that learns to mirror the user's personality and communication style over time.

PERSONALITY PROFILE:
%s

SIMILAR PAST MESSAGES:
%s

CONVERSATION CONTEXT:
%s

INSTRUCTIONS:
1. Respond in the user's typical communication style based on the personality profile
2. Use similar tone, formality level, and enthusiasm as shown in past messages
3. Reference their interests and use their favorite phrases when appropriate
4. Keep responses concise and engaging
5. Gradually become more like the user as you learn more about their style

Current message: %s

Response:`

func buildPrompt(p profile.Profile, similar []string, recent []memory.Message, input string) string {
	return fmt.Sprintf(basePrompt,
		personalityContext(p),
		formatSimilar(similar),
		formatRecent(recent),
		input,
	)
}

// personalityContext condenses the profile into the short natural-language
// block the generation prompt consumes.
func personalityContext(p profile.Profile) string {
	if !p.Updated() {
		return "User personality still being learned..."
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Communication style: %s tone, formality level %d/10",
		p.CommunicationStyle.Tone, p.CommunicationStyle.FormalityLevel))

	if traits := extremeTraits(p.PersonalityTraits); len(traits) > 0 {
		lines = append(lines, "Personality: "+strings.Join(traits, ", "))
	}
	if len(p.InterestsAndTopics) > 0 {
		lines = append(lines, "Interests: "+strings.Join(head(p.InterestsAndTopics, 5), ", "))
	}
	if len(p.FavoritePhrases) > 0 {
		lines = append(lines, "Typical phrases: "+strings.Join(head(p.FavoritePhrases, 3), ", "))
	}

	stats := p.MessageStatistics
	if stats.TotalMessages > 0 {
		lines = append(lines, fmt.Sprintf("Typical message length: %.1f words", stats.AvgWordsPerMessage))
		if stats.AvgSentiment > 0.1 {
			lines = append(lines, "Generally positive tone")
		} else if stats.AvgSentiment < -0.1 {
			lines = append(lines, "Generally more reserved tone")
		}
	}

	return strings.Join(lines, "\n")
}

// extremeTraits labels only the scores that stand out: above 7 is high,
// below 4 is low.
func extremeTraits(ts profile.TraitScores) []string {
	named := []struct {
		name  string
		score profile.Score
	}{
		{"openness", ts.Openness},
		{"conscientiousness", ts.Conscientiousness},
		{"extraversion", ts.Extraversion},
		{"agreeableness", ts.Agreeableness},
		{"neuroticism", ts.Neuroticism},
	}

	var out []string
	for _, t := range named {
		if t.score > 7 {
			out = append(out, "high "+t.name)
		} else if t.score < 4 {
			out = append(out, "low "+t.name)
		}
	}
	return out
}

func formatSimilar(messages []string) string {
	if len(messages) == 0 {
		return "No similar messages found yet."
	}
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, msg)
	}
	return b.String()
}

func formatRecent(messages []memory.Message) string {
	if len(messages) == 0 {
		return "Start of conversation"
	}
	lines := make([]string, len(messages))
	for i, msg := range messages {
		speaker := "Assistant"
		if msg.Role == memory.RoleUser {
			speaker = "User"
		}
		lines[i] = speaker + ": " + msg.Content
	}
	return strings.Join(lines, "\n")
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
