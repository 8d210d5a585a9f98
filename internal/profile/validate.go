package profile

import "fmt"

func validScore(s Score) bool { return s >= 1 && s <= 10 }

func validateCommunicationStyle(cs CommunicationStyle) error {
	switch cs.Tone {
	case "casual", "formal", "mixed", "neutral":
	default:
		return fmt.Errorf("tone %q out of range", cs.Tone)
	}
	switch cs.TypicalSentenceLength {
	case "short", "medium", "long":
	default:
		return fmt.Errorf("typical_sentence_length %q out of range", cs.TypicalSentenceLength)
	}
	if !validScore(cs.FormalityLevel) || !validScore(cs.EnthusiasmLevel) {
		return fmt.Errorf("style scores out of 1-10 range")
	}
	return nil
}

func validateTraitScores(ts TraitScores) error {
	for _, s := range []Score{ts.Openness, ts.Conscientiousness, ts.Extraversion, ts.Agreeableness, ts.Neuroticism} {
		if !validScore(s) {
			return fmt.Errorf("trait score %d out of 1-10 range", s)
		}
	}
	return nil
}

func validateEmotionalPatterns(ep EmotionalPatterns) error {
	switch ep.DefaultMood {
	case "positive", "neutral", "negative":
	default:
		return fmt.Errorf("default_mood %q out of range", ep.DefaultMood)
	}
	if !validScore(ep.EmotionalRange) {
		return fmt.Errorf("emotional_range %d out of 1-10 range", ep.EmotionalRange)
	}
	return nil
}

func validateLinguisticPatterns(lp LinguisticPatterns) error {
	if lp.AvgWordsPerMessage < 0 {
		return fmt.Errorf("avg_words_per_message must be non-negative")
	}
	if !validScore(lp.ComplexityLevel) || !validScore(lp.QuestionFrequency) {
		return fmt.Errorf("linguistic scores out of 1-10 range")
	}
	return nil
}

func validateMessageStatistics(ms MessageStatistics) error {
	if ms.TotalMessages < 0 {
		return fmt.Errorf("total_messages must be non-negative")
	}
	if ms.AvgSentiment < -1 || ms.AvgSentiment > 1 {
		return fmt.Errorf("avg_sentiment %v outside [-1,1]", ms.AvgSentiment)
	}
	if ms.AvgWordsPerMessage < 0 || ms.AvgCharsPerMessage < 0 {
		return fmt.Errorf("averages must be non-negative")
	}
	if ms.ExclamationFrequency < 0 || ms.QuestionFrequency < 0 {
		return fmt.Errorf("punctuation frequencies must be non-negative")
	}
	return nil
}
