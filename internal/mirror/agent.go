package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mirrorme/mirrord/internal/analysis"
	"github.com/mirrorme/mirrord/internal/llm"
	"github.com/mirrorme/mirrord/internal/memory"
	"github.com/mirrorme/mirrord/internal/policy"
	"github.com/mirrorme/mirrord/internal/profile"
)

// ErrGenerationUnavailable marks a turn whose reply could not be generated.
// The accompanying text is the fixed fallback message; the failed attempt is
// never recorded as an assistant turn.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// FallbackReply is returned to the user when generation fails.
const FallbackReply = "I'm still learning about your communication style. Could you tell me more?"

// Config carries the orchestration knobs for one agent.
type Config struct {
	AnalysisFrequency      int
	MinMessagesForAnalysis int
	AnalysisWindow         int
	SimilarityK            int
	RecentContextWindow    int
	Temperature            float64
	MaxTokens              int

	// ObserveStage, when set, receives per-turn stage timings
	// ("analysis", "generation").
	ObserveStage func(stage string, d time.Duration)
}

// Agent coordinates one user's mirror conversation: memory, periodic
// personality re-analysis, context assembly, and response generation.
// An Agent is not safe for concurrent Respond calls; the session registry
// serializes turns per user.
type Agent struct {
	cfg      Config
	mem      *memory.Manager
	analyzer *analysis.Analyzer
	client   llm.Client
}

func NewAgent(cfg Config, mem *memory.Manager, analyzer *analysis.Analyzer, client llm.Client) *Agent {
	if cfg.AnalysisFrequency <= 0 {
		cfg.AnalysisFrequency = 10
	}
	if cfg.MinMessagesForAnalysis <= 0 {
		cfg.MinMessagesForAnalysis = 5
	}
	if cfg.AnalysisWindow <= 0 {
		cfg.AnalysisWindow = 50
	}
	if cfg.SimilarityK <= 0 {
		cfg.SimilarityK = 3
	}
	if cfg.RecentContextWindow <= 0 {
		cfg.RecentContextWindow = 6
	}
	return &Agent{cfg: cfg, mem: mem, analyzer: analyzer, client: client}
}

// Respond runs one full turn: record the user message, re-analyze the
// profile when the cadence gate opens, assemble context, and generate the
// mirrored reply. Exactly one generation call happens per turn; on failure
// the fallback text is returned with ErrGenerationUnavailable and no
// assistant turn is appended.
func (a *Agent) Respond(ctx context.Context, input string) (string, error) {
	// Mask PII before the message enters memory; everything downstream
	// (persistence, analysis, provider prompts) sees only the masked text.
	input, _ = policy.RedactPII(input)

	a.mem.Append(ctx, memory.RoleUser, input, nil)

	a.maybeAnalyze(ctx)

	prompt := buildPrompt(
		a.mem.Profile(),
		a.mem.SimilarUserMessages(ctx, input, a.cfg.SimilarityK),
		a.mem.RecentContext(a.cfg.RecentContextWindow),
		input,
	)

	genStart := time.Now()
	text, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	a.observeStage("generation", time.Since(genStart))
	if err != nil {
		return FallbackReply, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackReply, fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	a.mem.Append(ctx, memory.RoleAssistant, text, nil)
	return text, nil
}

// maybeAnalyze re-runs personality analysis when the user message count
// reaches the cadence gate. Analysis is synchronous so the current turn
// already reflects the refreshed profile. Message statistics are merged
// even when trait extraction degraded to defaults.
func (a *Agent) maybeAnalyze(ctx context.Context) {
	n := a.mem.UserMessageCount()
	if n < a.cfg.MinMessagesForAnalysis || n%a.cfg.AnalysisFrequency != 0 {
		return
	}

	start := time.Now()
	msgs := a.mem.MessagesForAnalysis(a.cfg.AnalysisWindow)
	delta := a.analyzer.Analyze(ctx, msgs)
	stats := analysis.ComputeStatistics(msgs)
	delta.MessageStatistics = &stats
	a.mem.MergeProfile(ctx, delta)
	a.observeStage("analysis", time.Since(start))
}

func (a *Agent) observeStage(stage string, d time.Duration) {
	if a.cfg.ObserveStage != nil {
		a.cfg.ObserveStage(stage, d)
	}
}

// Progress is the read-only learning telemetry surface.
type Progress struct {
	MessagesAnalyzed   int    `json:"messages_analyzed"`
	PersonalityUpdates bool   `json:"personality_updates"`
	LearningStage      string `json:"learning_stage"`
	NextAnalysisAt     int    `json:"next_analysis_at"`
}

func (a *Agent) LearningProgress() Progress {
	n := a.mem.UserMessageCount()
	return Progress{
		MessagesAnalyzed:   n,
		PersonalityUpdates: a.mem.Profile().Updated(),
		LearningStage:      a.learningStage(n),
		NextAnalysisAt:     (n/a.cfg.AnalysisFrequency + 1) * a.cfg.AnalysisFrequency,
	}
}

func (a *Agent) learningStage(messageCount int) string {
	switch {
	case messageCount < a.cfg.MinMessagesForAnalysis:
		return "Initial Learning"
	case messageCount < 20:
		return "Basic Patterns"
	case messageCount < 50:
		return "Style Recognition"
	case messageCount < 100:
		return "Personality Modeling"
	default:
		return "Advanced Mirroring"
	}
}

// Profile returns a copy of the live personality profile.
func (a *Agent) Profile() profile.Profile { return a.mem.Profile() }

// PersonalitySummary renders the learned profile as a short human-readable
// report for the UI collaborator.
func (a *Agent) PersonalitySummary() string {
	p := a.mem.Profile()
	if !p.Updated() {
		return "No personality data available yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Communication style: %s tone, %s enthusiasm\n",
		p.CommunicationStyle.Tone, enthusiasmWord(p.CommunicationStyle.EnthusiasmLevel))
	fmt.Fprintf(&b, "Traits: openness %d/10, conscientiousness %d/10, extraversion %d/10, agreeableness %d/10, neuroticism %d/10\n",
		p.PersonalityTraits.Openness,
		p.PersonalityTraits.Conscientiousness,
		p.PersonalityTraits.Extraversion,
		p.PersonalityTraits.Agreeableness,
		p.PersonalityTraits.Neuroticism)
	fmt.Fprintf(&b, "Message patterns: %.1f words per message on average, %s sentiment, %d messages analyzed",
		p.MessageStatistics.AvgWordsPerMessage,
		sentimentWord(p.MessageStatistics.AvgSentiment),
		p.MessageStatistics.TotalMessages)
	return b.String()
}

func enthusiasmWord(level profile.Score) string {
	switch {
	case level > 7:
		return "high"
	case level > 3:
		return "moderate"
	default:
		return "low"
	}
}

func sentimentWord(s float64) string {
	switch {
	case s > 0.1:
		return "positive"
	case s < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

// RecentHistory returns the last limit messages in order.
func (a *Agent) RecentHistory(limit int) []memory.Message { return a.mem.RecentContext(limit) }

// Reset clears memory, profile, and the semantic index.
func (a *Agent) Reset(ctx context.Context) { a.mem.Reset(ctx) }

// Export returns a full-state backup snapshot.
func (a *Agent) Export() memory.Snapshot { return a.mem.Export() }

// Import restores a previously exported snapshot.
func (a *Agent) Import(ctx context.Context, snap memory.Snapshot) { a.mem.Import(ctx, snap) }
