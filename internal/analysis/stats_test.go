package analysis

import (
	"math"
	"reflect"
	"testing"
)

func TestComputeStatisticsEmptyInput(t *testing.T) {
	got := ComputeStatistics(nil)
	if got.TotalMessages != 0 || got.AvgWordsPerMessage != 0 || got.AvgSentiment != 0 {
		t.Fatalf("empty input should produce zeroed statistics: %+v", got)
	}
	if got.CommonWords == nil || len(got.CommonWords) != 0 {
		t.Fatalf("CommonWords = %v, want empty non-nil slice", got.CommonWords)
	}
}

func TestComputeStatisticsAverages(t *testing.T) {
	msgs := []string{
		"hello there friend",  // 3 words, 18 chars
		"go climbing with me", // 4 words, 19 chars
	}
	got := ComputeStatistics(msgs)

	if got.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", got.TotalMessages)
	}
	if got.AvgWordsPerMessage != 3.5 {
		t.Fatalf("AvgWordsPerMessage = %v, want 3.5", got.AvgWordsPerMessage)
	}
	if got.AvgCharsPerMessage != 18.5 {
		t.Fatalf("AvgCharsPerMessage = %v, want 18.5", got.AvgCharsPerMessage)
	}
	if got.AvgSentiment < -1 || got.AvgSentiment > 1 {
		t.Fatalf("AvgSentiment = %v, want value in [-1,1]", got.AvgSentiment)
	}
}

func TestComputeStatisticsSentimentBounds(t *testing.T) {
	cases := [][]string{
		{"I love this, it is absolutely wonderful and amazing!"},
		{"This is terrible, awful, I hate everything about it."},
		{"The meeting is at three."},
	}
	for _, msgs := range cases {
		got := ComputeStatistics(msgs)
		if got.AvgSentiment < -1 || got.AvgSentiment > 1 {
			t.Fatalf("AvgSentiment = %v for %q, want [-1,1]", got.AvgSentiment, msgs[0])
		}
		if math.IsNaN(got.AvgSentiment) {
			t.Fatalf("AvgSentiment is NaN for %q", msgs[0])
		}
	}
}

func TestComputeStatisticsCommonWords(t *testing.T) {
	msgs := []string{
		"climbing climbing climbing jazz",
		"jazz coffee",
		"the and with by", // all stop words
		"it me us",        // stop words and short tokens
	}
	got := ComputeStatistics(msgs)

	want := []string{"climbing", "jazz", "coffee"}
	if !reflect.DeepEqual(got.CommonWords, want) {
		t.Fatalf("CommonWords = %v, want %v", got.CommonWords, want)
	}
}

func TestComputeStatisticsCommonWordsTieBreakIsFirstSeen(t *testing.T) {
	msgs := []string{"zebra apple", "zebra apple"}
	first := ComputeStatistics(msgs)
	for i := 0; i < 5; i++ {
		again := ComputeStatistics(msgs)
		if !reflect.DeepEqual(again.CommonWords, first.CommonWords) {
			t.Fatalf("CommonWords not deterministic: %v vs %v", again.CommonWords, first.CommonWords)
		}
	}
	if !reflect.DeepEqual(first.CommonWords, []string{"zebra", "apple"}) {
		t.Fatalf("CommonWords = %v, want first-seen order on ties", first.CommonWords)
	}
}

func TestComputeStatisticsPunctuationFrequencies(t *testing.T) {
	msgs := []string{"wow!! really?", "fine."}
	got := ComputeStatistics(msgs)
	if got.ExclamationFrequency != 1 {
		t.Fatalf("ExclamationFrequency = %v, want 1", got.ExclamationFrequency)
	}
	if got.QuestionFrequency != 0.5 {
		t.Fatalf("QuestionFrequency = %v, want 0.5", got.QuestionFrequency)
	}
}

func TestComputeStatisticsCapsCommonWordsAtTen(t *testing.T) {
	msgs := []string{"alpha bravo charlie delta echo foxtrot golf hotel november kilo lima mike"}
	got := ComputeStatistics(msgs)
	if len(got.CommonWords) != 10 {
		t.Fatalf("len(CommonWords) = %d, want 10", len(got.CommonWords))
	}
}
