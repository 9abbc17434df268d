package chat

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/civilmastersolution/cms-backend/internal/metrics"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// MaxWordsPerQuestion caps question length, counted as whitespace-delimited
// tokens.
const MaxWordsPerQuestion = 70

// validateInput checks the honeypot, emptiness, and length, and detects the
// question language. The honeypot check runs first: a non-empty value is an
// automation signal and short-circuits everything else.
func (s *Service) validateInput(question, honeypot, clientIP string) (string, models.Language, error) {
	if strings.TrimSpace(honeypot) != "" {
		// Logged as a security signal, not merely rejected.
		s.logger.Warn("honeypot triggered", slog.String("client_ip", clientIP))
		metrics.ChatSpamDetected.Inc()
		return "", "", &ValidationError{Reason: "Spam detected"}
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", "", &ValidationError{Reason: "No question provided"}
	}

	if n := len(strings.Fields(question)); n > MaxWordsPerQuestion {
		return "", "", &ValidationError{
			Reason: fmt.Sprintf("Question too long (max %d words)", MaxWordsPerQuestion),
		}
	}

	return question, DetectLanguage(question), nil
}

// DetectLanguage classifies text as Thai if it contains any Thai-script code
// point (U+0E00 through U+0E7F), English otherwise. A deterministic scan,
// not a statistical classifier.
func DetectLanguage(text string) models.Language {
	for _, r := range text {
		if r >= 0x0E00 && r <= 0x0E7F {
			return models.LangThai
		}
	}
	return models.LangEnglish
}
