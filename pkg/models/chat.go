package models

import "time"

// Language is the closed set of languages the chatbot answers in.
type Language string

const (
	LangEnglish Language = "en"
	LangThai    Language = "th"
)

// Exchange is a single question/answer turn in a conversation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatSession holds the per-client conversational state. It is persisted as
// a single JSON value in the shared key-value store, keyed by session ID.
type ChatSession struct {
	History            []Exchange `json:"history"`
	QuestionTimestamps []int64    `json:"question_timestamps"` // unix seconds
	MessageCount       int        `json:"message_count"`
	LastActivity       int64      `json:"last_activity"` // unix seconds
}

// QAPair is one curated knowledge-base entry.
type QAPair struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Lang     Language `json:"lang"`
}

// CompanyProfile holds the per-language company facts embedded in prompts.
type CompanyProfile struct {
	Name      string
	Specialty string
	Services  []string
	Products  []string
	Contact   string
}

// BudgetAlert describes a monthly spend ceiling being crossed.
type BudgetAlert struct {
	Month        string    `json:"month"` // "2026-08"
	BudgetLimit  float64   `json:"budget_limit"`
	CurrentSpend float64   `json:"current_spend"`
	Timestamp    time.Time `json:"timestamp"`
}

// AnswerSource records where a chat answer came from, for metrics and logs.
type AnswerSource string

const (
	SourceCache          AnswerSource = "cache"
	SourceExactMatch     AnswerSource = "kb_exact"
	SourceSemanticMatch  AnswerSource = "kb_semantic"
	SourceGenerated      AnswerSource = "generated"
	SourceFallback       AnswerSource = "fallback"
	SourceBudgetFallback AnswerSource = "budget_fallback"
)
