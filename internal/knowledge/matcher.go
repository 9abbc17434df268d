package knowledge

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// DefaultSimilarityThreshold is the cosine similarity a candidate must
// strictly exceed to count as a semantic match.
const DefaultSimilarityThreshold = 0.80

// Embedder encodes text into fixed-size vectors for similarity comparison.
// It is an optional capability; a nil Embedder disables semantic matching.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Matcher finds knowledge-base answers for user questions.
type Matcher struct {
	embedder  Embedder
	threshold float64
	logger    *slog.Logger
}

// MatcherOption configures the matcher
type MatcherOption func(*Matcher)

// WithEmbedder enables semantic matching with the given backend
func WithEmbedder(e Embedder) MatcherOption {
	return func(m *Matcher) {
		m.embedder = e
	}
}

// WithThreshold overrides the similarity threshold
func WithThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// NewMatcher creates a matcher. Without an embedder it does exact matching
// only.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		threshold: DefaultSimilarityThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Find returns the answer for question from candidates, or ok=false when
// nothing matches. Exact matching runs first and never touches the embedding
// backend; semantic matching runs only if configured, and any embedding
// failure degrades to no-match.
func (m *Matcher) Find(ctx context.Context, question string, candidates []models.QAPair) (string, models.AnswerSource, bool) {
	normalized := normalize(question)
	for _, pair := range candidates {
		if normalize(pair.Question) == normalized {
			return pair.Answer, models.SourceExactMatch, true
		}
	}

	if m.embedder == nil {
		return "", "", false
	}

	answer, ok := m.semanticMatch(ctx, question, candidates)
	if !ok {
		return "", "", false
	}
	return answer, models.SourceSemanticMatch, true
}

// semanticMatch scans candidates for the single highest-similarity question
// strictly above the threshold. Strict > comparisons keep the first-seen
// candidate on ties.
func (m *Matcher) semanticMatch(ctx context.Context, question string, candidates []models.QAPair) (string, bool) {
	queryVec, err := m.embedder.Embed(ctx, question)
	if err != nil {
		m.logger.Error("failed to embed question, skipping semantic match",
			slog.String("error", err.Error()))
		return "", false
	}

	best := -1
	bestSim := m.threshold
	for i, pair := range candidates {
		candVec, err := m.embedder.Embed(ctx, pair.Question)
		if err != nil {
			m.logger.Error("failed to embed candidate, skipping",
				slog.String("error", err.Error()))
			continue
		}
		if sim := cosineSimilarity(queryVec, candVec); sim > bestSim {
			best = i
			bestSim = sim
		}
	}

	if best < 0 {
		return "", false
	}

	m.logger.Debug("semantic match",
		slog.String("matched_question", candidates[best].Question),
		slog.Float64("similarity", bestSim))
	return candidates[best].Answer, true
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
