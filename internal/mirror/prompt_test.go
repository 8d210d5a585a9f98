package mirror

import (
	"strings"
	"testing"
	"time"

	"github.com/mirrorme/mirrord/internal/memory"
	"github.com/mirrorme/mirrord/internal/profile"
)

func learnedProfile() profile.Profile {
	p := profile.Default()
	p.CommunicationStyle.Tone = "casual"
	p.CommunicationStyle.FormalityLevel = 3
	p.PersonalityTraits = profile.TraitScores{Openness: 9, Conscientiousness: 5, Extraversion: 8, Agreeableness: 5, Neuroticism: 2}
	p.InterestsAndTopics = []string{"surfing", "cooking", "jazz", "travel", "films", "chess"}
	p.FavoritePhrases = []string{"stoked", "no worries", "for sure", "honestly"}
	p.MessageStatistics.TotalMessages = 20
	p.MessageStatistics.AvgWordsPerMessage = 7.25
	p.MessageStatistics.AvgSentiment = 0.4
	p.LastUpdated = time.Now()
	return p
}

func TestPersonalityContextBeforeLearning(t *testing.T) {
	got := personalityContext(profile.Default())
	if got != "User personality still being learned..." {
		t.Fatalf("context = %q", got)
	}
}

func TestPersonalityContextHighAndLowTraits(t *testing.T) {
	got := personalityContext(learnedProfile())

	for _, want := range []string{
		"casual tone, formality level 3/10",
		"high openness",
		"high extraversion",
		"low neuroticism",
		"Typical message length: 7.2 words",
		"Generally positive tone",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("context missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "conscientiousness") {
		t.Fatalf("mid-range traits should not be mentioned:\n%s", got)
	}
}

func TestPersonalityContextTruncatesLists(t *testing.T) {
	got := personalityContext(learnedProfile())
	if strings.Contains(got, "chess") {
		t.Fatalf("interests should be capped at five:\n%s", got)
	}
	if strings.Contains(got, "honestly") {
		t.Fatalf("phrases should be capped at three:\n%s", got)
	}
}

func TestFormatSimilar(t *testing.T) {
	if got := formatSimilar(nil); got != "No similar messages found yet." {
		t.Fatalf("formatSimilar(nil) = %q", got)
	}
	got := formatSimilar([]string{"first", "second"})
	if got != "1. first\n2. second" {
		t.Fatalf("formatSimilar = %q", got)
	}
}

func TestFormatRecent(t *testing.T) {
	if got := formatRecent(nil); got != "Start of conversation" {
		t.Fatalf("formatRecent(nil) = %q", got)
	}

	msgs := []memory.Message{
		{Role: memory.RoleUser, Content: "hi"},
		{Role: memory.RoleAssistant, Content: "hello"},
	}
	if got := formatRecent(msgs); got != "User: hi\nAssistant: hello" {
		t.Fatalf("formatRecent = %q", got)
	}
}

func TestBuildPromptIncludesAllBlocks(t *testing.T) {
	got := buildPrompt(learnedProfile(), []string{"remember this"}, []memory.Message{
		{Role: memory.RoleUser, Content: "earlier turn"},
	}, "what now?")

	for _, want := range []string{
		"PERSONALITY PROFILE:",
		"SIMILAR PAST MESSAGES:",
		"1. remember this",
		"CONVERSATION CONTEXT:",
		"User: earlier turn",
		"Current message: what now?",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
