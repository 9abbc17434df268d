package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// mockClient returns a fixed answer and tracks concurrent calls
type mockClient struct {
	answer string
	err    error
	delay  time.Duration

	mu         sync.Mutex
	inFlight   int32
	maxSeen    int32
	callCount  int
	lastPrompt string
}

func (m *mockClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	current := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)

	m.mu.Lock()
	if current > m.maxSeen {
		m.maxSeen = current
	}
	m.callCount++
	m.lastPrompt = prompt
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func fastGenerator(client GenerationClient, opts ...Option) *Generator {
	base := []Option{WithPacer(rate.NewLimiter(rate.Inf, 1))}
	return New(client, append(base, opts...)...)
}

func TestGenerateTrimsAnswer(t *testing.T) {
	client := &mockClient{answer: "  SFRC is concrete with steel fibers.\n"}
	gen := fastGenerator(client)

	answer, fellBack := gen.Generate(context.Background(), "What is SFRC?", nil, models.LangEnglish, nil)
	assert.Equal(t, "SFRC is concrete with steel fibers.", answer)
	assert.False(t, fellBack)
}

func TestGenerateFallbackOnError(t *testing.T) {
	client := &mockClient{err: errors.New("quota exceeded")}
	gen := fastGenerator(client)

	answer, fellBack := gen.Generate(context.Background(), "q", nil, models.LangEnglish, nil)
	assert.True(t, fellBack)
	assert.Equal(t, Fallback(models.LangEnglish), answer)
	assert.Contains(t, answer, ContactEmail)
}

func TestGenerateFallbackIsLanguageAware(t *testing.T) {
	client := &mockClient{err: errors.New("down")}
	gen := fastGenerator(client)

	answer, _ := gen.Generate(context.Background(), "q", nil, models.LangThai, nil)
	assert.Equal(t, Fallback(models.LangThai), answer)
	assert.NotEqual(t, Fallback(models.LangEnglish), answer)
}

func TestGenerateSerializesCalls(t *testing.T) {
	client := &mockClient{answer: "a", delay: 20 * time.Millisecond}
	gen := fastGenerator(client)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen.Generate(context.Background(), "q", nil, models.LangEnglish, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), client.maxSeen, "at most one call may be in flight")
	assert.Equal(t, 5, client.callCount)
}

func TestGenerateTimeoutFallsBack(t *testing.T) {
	client := &mockClient{answer: "late", delay: time.Second}
	gen := fastGenerator(client, WithCallTimeout(20*time.Millisecond))

	answer, fellBack := gen.Generate(context.Background(), "q", nil, models.LangEnglish, nil)
	assert.True(t, fellBack)
	assert.Equal(t, Fallback(models.LangEnglish), answer)
}

func TestGeneratePromptContents(t *testing.T) {
	client := &mockClient{answer: "a"}
	gen := fastGenerator(client)

	candidates := []models.QAPair{
		{Question: "What products do you offer?", Answer: "Steel fibers.", Lang: models.LangEnglish},
	}
	history := []models.Exchange{
		{Question: "earlier question", Answer: "earlier answer"},
	}

	gen.Generate(context.Background(), "What is SFRC?", candidates, models.LangEnglish, history)

	prompt := client.lastPrompt
	assert.Contains(t, prompt, "CMSbot")
	assert.Contains(t, prompt, "KNOWLEDGE BASE EXAMPLES")
	assert.Contains(t, prompt, "What products do you offer?")
	assert.Contains(t, prompt, "earlier question")
	assert.Contains(t, prompt, "CURRENT USER QUESTION: What is SFRC?")
}

func TestBuildPromptHistoryLimitedToThreeTurns(t *testing.T) {
	history := []models.Exchange{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
		{Question: "q4", Answer: "a4"},
	}

	prompt := BuildPrompt("current", nil, Profile(models.LangEnglish), models.LangEnglish, history)

	assert.NotContains(t, prompt, "User: q1")
	assert.Contains(t, prompt, "User: q2")
	assert.Contains(t, prompt, "User: q4")
}

func TestBuildPromptCapsExamplesPerTopic(t *testing.T) {
	var candidates []models.QAPair
	for _, q := range []string{
		"What fiber types exist?",
		"Which fiber is strongest?",
		"Why choose steel fiber?",
	} {
		candidates = append(candidates, models.QAPair{Question: q, Answer: "x", Lang: models.LangEnglish})
	}

	prompt := BuildPrompt("q", candidates, Profile(models.LangEnglish), models.LangEnglish, nil)

	// All three classify as products; only the first two appear
	assert.Contains(t, prompt, "What fiber types exist?")
	assert.Contains(t, prompt, "Which fiber is strongest?")
	assert.NotContains(t, prompt, "Why choose steel fiber?")
}

func TestBuildPromptThaiPreamble(t *testing.T) {
	prompt := BuildPrompt("q", nil, Profile(models.LangThai), models.LangThai, nil)
	assert.True(t, strings.Contains(prompt, "CMSbot"))
	assert.Contains(t, prompt, Profile(models.LangThai).Specialty)
}

func TestClassifyTopics(t *testing.T) {
	tests := []struct {
		question string
		topic    string
	}{
		{"Who founded the company?", "company"},
		{"What steel fiber products exist?", "products"},
		{"What tensile strength is achieved?", "technical"},
		{"Show me a completed warehouse project", "projects"},
		{"Which ACI standard is followed?", "standards"},
		{"How much cost savings can I expect?", "cost"},
		{"Can I become a distributor?", "partnership"},
	}

	for _, tc := range tests {
		t.Run(tc.topic, func(t *testing.T) {
			got, ok := classify(tc.question)
			require.True(t, ok)
			assert.Equal(t, tc.topic, got)
		})
	}
}
