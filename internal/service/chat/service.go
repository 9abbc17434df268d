// Package chat composes the chatbot request pipeline: rate limiting, session
// lifecycle, validation, the response cache, budget accounting, knowledge-base
// matching, and finally paid generation. Each stage either passes the request
// on or short-circuits to the response; the further a request gets, the more
// it costs.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/civilmastersolution/cms-backend/internal/knowledge"
	"github.com/civilmastersolution/cms-backend/internal/metrics"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

const (
	// MaxMessagesPerSession is the hard per-session message ceiling; only an
	// idle-timeout reset clears it.
	MaxMessagesPerSession = 500

	// Rate window shared by both limiter scopes.
	rateWindow = time.Minute

	// DefaultIPRateLimit caps requests per window from one network origin.
	DefaultIPRateLimit = 50

	// DefaultSessionRateLimit caps questions per window in one conversation.
	DefaultSessionRateLimit = 10
)

// budgetFallbacks is served when the monthly budget is exhausted.
var budgetFallbacks = map[models.Language]string{
	models.LangEnglish: "This chatbot is temporarily unavailable. Please try again later.",
	models.LangThai:    "แชทบอทไม่พร้อมใช้งานชั่วคราว กรุณาลองใหม่ภายหลัง",
}

// RateLimiter is the sliding-window limiter guarding the endpoint.
type RateLimiter interface {
	Allow(ctx context.Context, identity string, window time.Duration, max int) (bool, error)
}

// SessionManager owns per-client conversational state.
type SessionManager interface {
	GetOrInit(ctx context.Context, id string) (*models.ChatSession, error)
	Touch(sess *models.ChatSession)
	PruneWindow(sess *models.ChatSession, window time.Duration) int
	Append(sess *models.ChatSession, question, answer string)
	Save(ctx context.Context, id string, sess *models.ChatSession) error
}

// ResponseCache memoizes generated answers.
type ResponseCache interface {
	Get(ctx context.Context, question string, lang models.Language) (string, bool, error)
	Put(ctx context.Context, question string, lang models.Language, answer string) error
}

// BudgetTracker accounts estimated spend against the monthly ceiling.
type BudgetTracker interface {
	RecordAndCheck(ctx context.Context) (bool, error)
}

// KnowledgeSource supplies the Q&A pairs for matching and prompting.
type KnowledgeSource interface {
	Load() ([]models.QAPair, error)
}

// AnswerGenerator produces an answer via the external API. fellBack reports
// that the API failed and answer is the fixed fallback message.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, candidates []models.QAPair, lang models.Language, history []models.Exchange) (answer string, fellBack bool)
}

// Request is one inbound chat request after transport decoding.
type Request struct {
	SessionID string
	ClientIP  string
	Question  string
	Honeypot  string
}

// Response is the payload returned for every answered request.
type Response struct {
	Answer    string            `json:"response"`
	History   []models.Exchange `json:"history"`
	Remaining int               `json:"remaining"`
}

// Service is the request orchestrator. Session-scope rate limiting rides on
// the session's own question-timestamp window rather than a second limiter, so
// an idle reset clears both the history and the window together.
type Service struct {
	ipLimiter RateLimiter
	sessions  SessionManager
	cache     ResponseCache
	budget    BudgetTracker
	kb        KnowledgeSource
	matcher   *knowledge.Matcher
	generator AnswerGenerator
	logger    *slog.Logger

	ipRateLimit      int
	sessionRateLimit int
}

// Option configures the service
type Option func(*Service)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIPRateLimit overrides the per-IP ceiling
func WithIPRateLimit(n int) Option {
	return func(s *Service) {
		s.ipRateLimit = n
	}
}

// WithSessionRateLimit overrides the per-session ceiling
func WithSessionRateLimit(n int) Option {
	return func(s *Service) {
		s.sessionRateLimit = n
	}
}

// New creates the chat service from its collaborators.
func New(
	ipLimiter RateLimiter,
	sessions SessionManager,
	cache ResponseCache,
	budget BudgetTracker,
	kb KnowledgeSource,
	matcher *knowledge.Matcher,
	gen AnswerGenerator,
	opts ...Option,
) *Service {
	s := &Service{
		ipLimiter:        ipLimiter,
		sessions:         sessions,
		cache:            cache,
		budget:           budget,
		kb:               kb,
		matcher:          matcher,
		generator:        gen,
		logger:           slog.Default(),
		ipRateLimit:      DefaultIPRateLimit,
		sessionRateLimit: DefaultSessionRateLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ask runs a request through the pipeline and returns the response payload.
// Rate-limit and validation errors abort before any session mutation; every
// other path, cache hits and fallbacks included, persists the exchange.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	// IP window first: shared-infrastructure protection, checked before any
	// per-session work.
	allowed, err := s.ipLimiter.Allow(ctx, req.ClientIP, rateWindow, s.ipRateLimit)
	if err != nil {
		return nil, fmt.Errorf("ip rate check failed: %w", err)
	}
	if !allowed {
		metrics.RecordRateLimited("ip")
		return nil, ErrIPRateLimited
	}

	sess, err := s.sessions.GetOrInit(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session init failed: %w", err)
	}

	if sess.MessageCount >= MaxMessagesPerSession {
		metrics.RecordRateLimited("session_cap")
		return nil, ErrSessionMessageCap
	}

	if s.sessions.PruneWindow(sess, rateWindow) >= s.sessionRateLimit {
		metrics.RecordRateLimited("session")
		return nil, ErrSessionRateLimited
	}

	question, lang, err := s.validateInput(req.Question, req.Honeypot, req.ClientIP)
	if err != nil {
		metrics.RecordChatOutcome("validation_error")
		return nil, err
	}

	// The turn is accepted from here on: record it against the session
	// window and counters before resolving the answer.
	s.sessions.Touch(sess)

	answer, source := s.resolveAnswer(ctx, question, lang, sess.History)

	s.sessions.Append(sess, question, answer)
	if err := s.sessions.Save(ctx, req.SessionID, sess); err != nil {
		// The user already has an answer worth returning; losing one turn of
		// history is the lesser failure.
		s.logger.Error("failed to persist session",
			slog.String("session_id", req.SessionID),
			slog.String("error", err.Error()))
	}

	metrics.RecordChatOutcome("answered")
	metrics.RecordAnswerSource(string(source))

	return &Response{
		Answer:    answer,
		History:   sess.History,
		Remaining: MaxMessagesPerSession - sess.MessageCount,
	}, nil
}

// resolveAnswer walks the cache → budget → match → generate chain.
func (s *Service) resolveAnswer(ctx context.Context, question string, lang models.Language, history []models.Exchange) (string, models.AnswerSource) {
	cached, hit, err := s.cache.Get(ctx, question, lang)
	if err != nil {
		s.logger.Error("response cache read failed", slog.String("error", err.Error()))
	}
	if hit {
		return cached, models.SourceCache
	}

	exceeded, err := s.budget.RecordAndCheck(ctx)
	if err != nil {
		// If the budget store is unreachable the safe direction is to stop
		// spending until it recovers.
		s.logger.Error("budget check failed, suppressing generation",
			slog.String("error", err.Error()))
		exceeded = true
	}
	if exceeded {
		return budgetFallback(lang), models.SourceBudgetFallback
	}

	pairs, err := s.kb.Load()
	if err != nil {
		s.logger.Error("knowledge base load failed", slog.String("error", err.Error()))
		pairs = nil
	}
	candidates := knowledge.FilterLang(pairs, lang)

	if answer, source, ok := s.matcher.Find(ctx, question, candidates); ok {
		// Matches are cached too: a repeat of the same question skips the
		// whole chain next time.
		s.putCache(ctx, question, lang, answer)
		return answer, source
	}

	answer, fellBack := s.generator.Generate(ctx, question, candidates, lang, history)
	if fellBack {
		// Fallback text is not a real answer; caching it would serve it to
		// other users for the TTL after the API recovers.
		return answer, models.SourceFallback
	}
	s.putCache(ctx, question, lang, answer)
	return answer, models.SourceGenerated
}

func (s *Service) putCache(ctx context.Context, question string, lang models.Language, answer string) {
	if err := s.cache.Put(ctx, question, lang, answer); err != nil {
		s.logger.Error("response cache write failed", slog.String("error", err.Error()))
	}
}

func budgetFallback(lang models.Language) string {
	if msg, ok := budgetFallbacks[lang]; ok {
		return msg
	}
	return budgetFallbacks[models.LangEnglish]
}
