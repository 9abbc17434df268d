// Package budget accounts estimated spend on the external generation API
// against a hard monthly ceiling. Costs are an up-front estimate from a fixed
// assumed token count, not post-hoc metering; the point is a cheap circuit
// breaker, not billing-grade numbers.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/civilmastersolution/cms-backend/internal/kv"
	"github.com/civilmastersolution/cms-backend/internal/metrics"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

const (
	// DefaultMonthlyBudget is the hard ceiling in USD per calendar month.
	DefaultMonthlyBudget = 25.0

	// DefaultInputPricePer1K and DefaultOutputPricePer1K are the external
	// API's token prices in USD per thousand tokens.
	DefaultInputPricePer1K  = 0.0000375
	DefaultOutputPricePer1K = 0.00015

	// assumedTokens is the fixed per-call token estimate applied to both
	// input and output.
	assumedTokens = 50

	// spendTTL keeps a month's accumulator around for roughly 30 days; the
	// key rotates at the month boundary anyway, so a new month always
	// starts at zero.
	spendTTL = 30 * 24 * time.Hour

	spendKeyPrefix = "monthly_spend:"
	alertKeyPrefix = "budget_alerted:"
)

// AlertSender delivers budget-exceeded notifications to an operator.
type AlertSender interface {
	SendBudgetAlert(ctx context.Context, alert models.BudgetAlert) error
}

// noopAlertSender is a default sender that does nothing
type noopAlertSender struct{}

func (n *noopAlertSender) SendBudgetAlert(ctx context.Context, alert models.BudgetAlert) error {
	return nil
}

// Tracker accumulates estimated monthly spend in the shared store.
type Tracker struct {
	store       kv.Store
	alertSender AlertSender
	logger      *slog.Logger

	monthlyBudget    float64
	inputPricePer1K  float64
	outputPricePer1K float64

	// For time mocking in tests
	now func() time.Time
}

// Option configures the tracker
type Option func(*Tracker)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithAlertSender sets the alert sender
func WithAlertSender(sender AlertSender) Option {
	return func(t *Tracker) {
		t.alertSender = sender
	}
}

// WithMonthlyBudget sets the monthly ceiling in USD
func WithMonthlyBudget(budget float64) Option {
	return func(t *Tracker) {
		t.monthlyBudget = budget
	}
}

// WithPrices sets the per-thousand-token prices
func WithPrices(inputPer1K, outputPer1K float64) Option {
	return func(t *Tracker) {
		t.inputPricePer1K = inputPer1K
		t.outputPricePer1K = outputPer1K
	}
}

// WithTimeFunc sets a custom time function (for testing)
func WithTimeFunc(fn func() time.Time) Option {
	return func(t *Tracker) {
		t.now = fn
	}
}

// New creates a budget tracker backed by the given store.
func New(store kv.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:            store,
		alertSender:      &noopAlertSender{},
		logger:           slog.Default(),
		monthlyBudget:    DefaultMonthlyBudget,
		inputPricePer1K:  DefaultInputPricePer1K,
		outputPricePer1K: DefaultOutputPricePer1K,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// EstimatedCostPerCall returns the fixed per-call cost estimate in USD.
func (t *Tracker) EstimatedCostPerCall() float64 {
	return (assumedTokens/1000.0)*t.inputPricePer1K + (assumedTokens/1000.0)*t.outputPricePer1K
}

// RecordAndCheck adds one call's estimated cost to the current month's
// accumulator and reports whether the ceiling has been reached. The operator
// alert fires once per month, gated by a SetNX flag, regardless of how many
// calls land after the ceiling is crossed.
func (t *Tracker) RecordAndCheck(ctx context.Context) (bool, error) {
	month := t.monthKey()

	total, err := t.store.IncrByFloat(ctx, spendKeyPrefix+month, t.EstimatedCostPerCall(), spendTTL)
	if err != nil {
		return false, fmt.Errorf("failed to record spend for %s: %w", month, err)
	}

	metrics.SetMonthlySpend(total)

	exceeded := total >= t.monthlyBudget
	if exceeded {
		t.maybeAlert(ctx, month, total)
	}

	return exceeded, nil
}

// CurrentSpend returns the accumulated estimate for the current month.
func (t *Tracker) CurrentSpend(ctx context.Context) (float64, error) {
	total, err := t.store.IncrByFloat(ctx, spendKeyPrefix+t.monthKey(), 0, spendTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to read spend: %w", err)
	}
	return total, nil
}

// MonthlyBudget returns the configured ceiling.
func (t *Tracker) MonthlyBudget() float64 {
	return t.monthlyBudget
}

func (t *Tracker) maybeAlert(ctx context.Context, month string, total float64) {
	first, err := t.store.SetNX(ctx, alertKeyPrefix+month, []byte("1"), spendTTL)
	if err != nil {
		t.logger.Error("failed to check budget alert flag", slog.String("error", err.Error()))
		return
	}
	if !first {
		return
	}

	t.logger.Warn("monthly chatbot budget exceeded",
		slog.String("month", month),
		slog.Float64("spend", total),
		slog.Float64("budget", t.monthlyBudget))

	metrics.RecordBudgetAlert()

	alert := models.BudgetAlert{
		Month:        month,
		BudgetLimit:  t.monthlyBudget,
		CurrentSpend: total,
		Timestamp:    t.now(),
	}
	// Notification failure never affects the chat response.
	if err := t.alertSender.SendBudgetAlert(ctx, alert); err != nil {
		t.logger.Error("failed to send budget alert",
			slog.String("month", month),
			slog.String("error", err.Error()))
	}
}

func (t *Tracker) monthKey() string {
	now := t.now()
	return fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
}
