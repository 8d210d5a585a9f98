package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Score is a 1-10 trait rating. Model responses occasionally quote scores as
// strings ("7"), so unmarshalling accepts both forms.
type Score int

func (s *Score) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Score(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("score must be a number or numeric string")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return fmt.Errorf("score %q is not numeric", str)
	}
	*s = Score(f)
	return nil
}

// CommunicationStyle describes how the user tends to write.
type CommunicationStyle struct {
	Tone                  string `json:"tone"`
	FormalityLevel        Score  `json:"formality_level"`
	EnthusiasmLevel       Score  `json:"enthusiasm_level"`
	TypicalSentenceLength string `json:"typical_sentence_length"`
	UsesEmojis            bool   `json:"uses_emojis"`
	UsesSlang             bool   `json:"uses_slang"`
}

// TraitScores holds the Big Five ratings.
type TraitScores struct {
	Openness          Score `json:"openness"`
	Conscientiousness Score `json:"conscientiousness"`
	Extraversion      Score `json:"extraversion"`
	Agreeableness     Score `json:"agreeableness"`
	Neuroticism       Score `json:"neuroticism"`
}

type EmotionalPatterns struct {
	DefaultMood      string   `json:"default_mood"`
	EmotionalRange   Score    `json:"emotional_range"`
	StressIndicators []string `json:"stress_indicators"`
}

type LinguisticPatterns struct {
	AvgWordsPerMessage float64 `json:"avg_words_per_message"`
	ComplexityLevel    Score   `json:"complexity_level"`
	QuestionFrequency  Score   `json:"question_frequency"`
}

// MessageStatistics is recomputed wholesale from each analysis window,
// never incrementally updated.
type MessageStatistics struct {
	TotalMessages        int      `json:"total_messages"`
	AvgWordsPerMessage   float64  `json:"avg_words_per_message"`
	AvgCharsPerMessage   float64  `json:"avg_chars_per_message"`
	AvgSentiment         float64  `json:"avg_sentiment"`
	CommonWords          []string `json:"common_words"`
	ExclamationFrequency float64  `json:"exclamation_frequency"`
	QuestionFrequency    float64  `json:"question_frequency"`
}

// Profile is the single live personality record for one user. Successive
// merges replace it in place; no history of past versions is kept.
type Profile struct {
	CommunicationStyle CommunicationStyle `json:"communication_style"`
	PersonalityTraits  TraitScores        `json:"personality_traits"`
	InterestsAndTopics []string           `json:"interests_and_topics"`
	FavoritePhrases    []string           `json:"favorite_phrases"`
	EmotionalPatterns  EmotionalPatterns  `json:"emotional_patterns"`
	LinguisticPatterns LinguisticPatterns `json:"linguistic_patterns"`
	MessageStatistics  MessageStatistics  `json:"message_statistics"`
	LastUpdated        time.Time          `json:"last_updated"`
}

// Updated reports whether any merge has ever been applied.
func (p Profile) Updated() bool { return !p.LastUpdated.IsZero() }

// Default returns the profile used before any analysis has run and as the
// fallback when trait extraction fails.
func Default() Profile {
	return Profile{
		CommunicationStyle: CommunicationStyle{
			Tone:                  "neutral",
			FormalityLevel:        5,
			EnthusiasmLevel:       5,
			TypicalSentenceLength: "medium",
		},
		PersonalityTraits: TraitScores{
			Openness:          5,
			Conscientiousness: 5,
			Extraversion:      5,
			Agreeableness:     5,
			Neuroticism:       5,
		},
		InterestsAndTopics: []string{},
		FavoritePhrases:    []string{},
		EmotionalPatterns: EmotionalPatterns{
			DefaultMood:      "neutral",
			EmotionalRange:   5,
			StressIndicators: []string{},
		},
		LinguisticPatterns: LinguisticPatterns{
			AvgWordsPerMessage: 10,
			ComplexityLevel:    5,
			QuestionFrequency:  5,
		},
		MessageStatistics: MessageStatistics{
			CommonWords: []string{},
		},
	}
}

// Clone returns a deep copy so callers can hand out the live profile
// without aliasing its slices.
func (p Profile) Clone() Profile {
	c := p
	c.InterestsAndTopics = append([]string(nil), p.InterestsAndTopics...)
	c.FavoritePhrases = append([]string(nil), p.FavoritePhrases...)
	c.EmotionalPatterns.StressIndicators = append([]string(nil), p.EmotionalPatterns.StressIndicators...)
	c.MessageStatistics.CommonWords = append([]string(nil), p.MessageStatistics.CommonWords...)
	return c
}
