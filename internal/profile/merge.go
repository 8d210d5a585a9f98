package profile

import "time"

// Delta is a partial, untrusted profile update. Nil sections are absent and
// leave the current value untouched; present sections are validated and then
// overwrite the old value wholesale.
type Delta struct {
	CommunicationStyle *CommunicationStyle `json:"communication_style"`
	PersonalityTraits  *TraitScores        `json:"personality_traits"`
	InterestsAndTopics []string            `json:"interests_and_topics"`
	FavoritePhrases    []string            `json:"favorite_phrases"`
	EmotionalPatterns  *EmotionalPatterns  `json:"emotional_patterns"`
	LinguisticPatterns *LinguisticPatterns `json:"linguistic_patterns"`
	MessageStatistics  *MessageStatistics  `json:"message_statistics"`
}

// FullDelta converts a complete profile into a delta touching every section.
func FullDelta(p Profile) Delta {
	return Delta{
		CommunicationStyle: &p.CommunicationStyle,
		PersonalityTraits:  &p.PersonalityTraits,
		InterestsAndTopics: p.InterestsAndTopics,
		FavoritePhrases:    p.FavoritePhrases,
		EmotionalPatterns:  &p.EmotionalPatterns,
		LinguisticPatterns: &p.LinguisticPatterns,
		MessageStatistics:  &p.MessageStatistics,
	}
}

// Merge applies d to p, validating each section's shape before acceptance.
// Malformed sections are skipped and reported back by name so the caller can
// log them; the previous value survives. LastUpdated is always set to now,
// even for an all-rejected delta.
func Merge(p *Profile, d Delta, now time.Time) (rejected []string) {
	if d.CommunicationStyle != nil {
		if err := validateCommunicationStyle(*d.CommunicationStyle); err == nil {
			p.CommunicationStyle = *d.CommunicationStyle
		} else {
			rejected = append(rejected, "communication_style")
		}
	}
	if d.PersonalityTraits != nil {
		if err := validateTraitScores(*d.PersonalityTraits); err == nil {
			p.PersonalityTraits = *d.PersonalityTraits
		} else {
			rejected = append(rejected, "personality_traits")
		}
	}
	if d.InterestsAndTopics != nil {
		p.InterestsAndTopics = append([]string(nil), d.InterestsAndTopics...)
	}
	if d.FavoritePhrases != nil {
		p.FavoritePhrases = append([]string(nil), d.FavoritePhrases...)
	}
	if d.EmotionalPatterns != nil {
		if err := validateEmotionalPatterns(*d.EmotionalPatterns); err == nil {
			ep := *d.EmotionalPatterns
			ep.StressIndicators = append([]string(nil), ep.StressIndicators...)
			p.EmotionalPatterns = ep
		} else {
			rejected = append(rejected, "emotional_patterns")
		}
	}
	if d.LinguisticPatterns != nil {
		if err := validateLinguisticPatterns(*d.LinguisticPatterns); err == nil {
			p.LinguisticPatterns = *d.LinguisticPatterns
		} else {
			rejected = append(rejected, "linguistic_patterns")
		}
	}
	if d.MessageStatistics != nil {
		if err := validateMessageStatistics(*d.MessageStatistics); err == nil {
			ms := *d.MessageStatistics
			ms.CommonWords = append([]string(nil), ms.CommonWords...)
			if len(ms.CommonWords) > 10 {
				ms.CommonWords = ms.CommonWords[:10]
			}
			p.MessageStatistics = ms
		} else {
			rejected = append(rejected, "message_statistics")
		}
	}
	p.LastUpdated = now.UTC()
	return rejected
}
