// Package generator builds prompts and invokes the external generation API.
// Outbound calls are serialized through a semaphore sized to the external
// API's concurrency limit (one, unless configured otherwise) and paced by a
// token-bucket limiter. A deliberate throughput bottleneck: latency under
// load is the price of never tripping the vendor's concurrent-call limits.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/civilmastersolution/cms-backend/internal/metrics"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

const (
	// DefaultCallTimeout bounds a single generation call, hung transports
	// included. Timeouts take the fallback path like any other API failure.
	DefaultCallTimeout = 20 * time.Second

	// DefaultMaxConcurrent is the number of in-flight generation calls
	// allowed per process.
	DefaultMaxConcurrent = 1
)

// fallbackMessages is served whenever the generation API fails; the user
// always receives an answer.
var fallbackMessages = map[models.Language]string{
	models.LangEnglish: "Service temporarily unavailable. Please contact " + ContactEmail + " or try again later.",
	models.LangThai:    "ขออภัย ระบบไม่พร้อมใช้งานชั่วคราว กรุณาติดต่อ " + ContactEmail + " หรือลองใหม่ภายหลัง",
}

// GenerationClient is the external text-generation API.
type GenerationClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator produces answers for questions the knowledge base cannot cover.
type Generator struct {
	client  GenerationClient
	logger  *slog.Logger
	sem     chan struct{}
	pacer   *rate.Limiter
	timeout time.Duration
}

// Option configures the generator
type Option func(*Generator)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithMaxConcurrent sizes the in-flight call guard
func WithMaxConcurrent(n int) Option {
	return func(g *Generator) {
		if n < 1 {
			n = 1
		}
		g.sem = make(chan struct{}, n)
	}
}

// WithCallTimeout bounds each generation call
func WithCallTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithPacer overrides the outbound call pacer
func WithPacer(limiter *rate.Limiter) Option {
	return func(g *Generator) {
		g.pacer = limiter
	}
}

// New creates a generator around the given client.
func New(client GenerationClient, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		logger:  slog.Default(),
		sem:     make(chan struct{}, DefaultMaxConcurrent),
		pacer:   rate.NewLimiter(rate.Every(time.Second), 1),
		timeout: DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate builds the prompt and calls the generation API under the
// concurrency guard. Any API failure returns the language-appropriate
// fallback message with fellBack set; callers never see an error as a
// request failure.
func (g *Generator) Generate(ctx context.Context, question string, candidates []models.QAPair, lang models.Language, history []models.Exchange) (answer string, fellBack bool) {
	prompt := BuildPrompt(question, candidates, Profile(lang), lang, history)

	answer, err := g.callAPI(ctx, prompt)
	if err != nil {
		g.logger.Error("generation API call failed, serving fallback",
			slog.String("error", err.Error()))
		return Fallback(lang), true
	}

	return strings.TrimSpace(answer), false
}

// Fallback returns the fixed message served when generation is unavailable.
func Fallback(lang models.Language) string {
	if msg, ok := fallbackMessages[lang]; ok {
		return msg
	}
	return fallbackMessages[models.LangEnglish]
}

func (g *Generator) callAPI(ctx context.Context, prompt string) (string, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("request canceled while waiting for generation slot: %w", ctx.Err())
	}
	defer func() { <-g.sem }()

	if err := g.pacer.Wait(ctx); err != nil {
		return "", fmt.Errorf("request canceled while pacing generation call: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	answer, err := g.client.GenerateContent(callCtx, prompt)
	metrics.RecordGeneration(time.Since(start), err != nil)
	if err != nil {
		return "", err
	}
	return answer, nil
}
