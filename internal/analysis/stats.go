package analysis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonreiter/govader"

	"github.com/mirrorme/mirrord/internal/profile"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"the a an and or but in on at to for of with by is are was were be been " +
			"have has had do does did will would could should may might must can " +
			"i you he she it we they me him her us them my your his its our their") {
		stopWords[w] = struct{}{}
	}
}

// ComputeStatistics derives lexical and sentiment statistics from a batch of
// user message texts. It is a pure function: empty input yields a zeroed
// record and no error path exists.
func ComputeStatistics(messages []string) profile.MessageStatistics {
	if len(messages) == 0 {
		return profile.MessageStatistics{CommonWords: []string{}}
	}

	analyzer := govader.NewSentimentIntensityAnalyzer()

	var (
		totalWords   int
		totalChars   int
		sentimentSum float64
		exclamations int
		questions    int
	)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, msg := range messages {
		totalWords += len(strings.Fields(msg))
		totalChars += utf8.RuneCountInString(msg)
		sentimentSum += analyzer.PolarityScores(msg).Compound
		exclamations += strings.Count(msg, "!")
		questions += strings.Count(msg, "?")

		for _, tok := range tokenize(msg) {
			if _, stop := stopWords[tok]; stop || len(tok) <= 2 {
				continue
			}
			if _, seen := firstSeen[tok]; !seen {
				firstSeen[tok] = len(firstSeen)
			}
			counts[tok]++
		}
	}

	n := float64(len(messages))
	return profile.MessageStatistics{
		TotalMessages:        len(messages),
		AvgWordsPerMessage:   float64(totalWords) / n,
		AvgCharsPerMessage:   float64(totalChars) / n,
		AvgSentiment:         sentimentSum / n,
		CommonWords:          topWords(counts, firstSeen, 10),
		ExclamationFrequency: float64(exclamations) / n,
		QuestionFrequency:    float64(questions) / n,
	}
}

// tokenize lowercases the text and splits it into alphanumeric runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// topWords orders tokens by descending count; ties keep first-seen order so
// the result is deterministic across runs.
func topWords(counts map[string]int, firstSeen map[string]int, limit int) []string {
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
