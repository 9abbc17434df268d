package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/civilmastersolution/cms-backend/internal/kv"
	"github.com/civilmastersolution/cms-backend/internal/service/budget"
)

var (
	spendRedisAddr     string
	spendRedisPassword string
	spendRedisDB       int
	spendBudget        float64
)

var spendCmd = &cobra.Command{
	Use:   "spend",
	Short: "Show the chatbot's estimated spend for the current month",
	Long: `Show the chatbot's estimated monthly spend against its budget.

Spend counters live in the shared key-value store, so this reads from
Redis. Servers running on the in-memory store keep counters per process
and cannot be inspected from here.`,
	RunE: runSpend,
}

func init() {
	rootCmd.AddCommand(spendCmd)

	spendCmd.Flags().StringVar(&spendRedisAddr, "redis-addr", getEnvOrDefault("REDIS_ADDR", "localhost:6379"), "Redis address")
	spendCmd.Flags().StringVar(&spendRedisPassword, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	spendCmd.Flags().IntVar(&spendRedisDB, "redis-db", 0, "Redis database number")
	spendCmd.Flags().Float64Var(&spendBudget, "budget", budget.DefaultMonthlyBudget, "Monthly budget in USD")
}

// SpendReport is the spend summary printed by the spend command.
type SpendReport struct {
	Month         string  `json:"month"`
	SpendUSD      float64 `json:"spend_usd"`
	BudgetUSD     float64 `json:"budget_usd"`
	RemainingUSD  float64 `json:"remaining_usd"`
	BudgetReached bool    `json:"budget_reached"`
}

func runSpend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := kv.OpenRedis(ctx, spendRedisAddr, spendRedisPassword, spendRedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", spendRedisAddr, err)
	}
	defer store.Close()

	tracker := budget.New(store, budget.WithMonthlyBudget(spendBudget))

	spent, err := tracker.CurrentSpend(ctx)
	if err != nil {
		return fmt.Errorf("failed to read spend counter: %w", err)
	}

	report := SpendReport{
		Month:         time.Now().UTC().Format("2006-01"),
		SpendUSD:      spent,
		BudgetUSD:     tracker.MonthlyBudget(),
		RemainingUSD:  tracker.MonthlyBudget() - spent,
		BudgetReached: spent >= tracker.MonthlyBudget(),
	}
	if report.RemainingUSD < 0 {
		report.RemainingUSD = 0
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	printSpendReport(report)
	return nil
}

func printSpendReport(report SpendReport) {
	fmt.Println("Monthly Spend")
	fmt.Println("=============")
	fmt.Println()
	fmt.Printf("Month:         %s\n", report.Month)
	fmt.Printf("Spend:         $%.6f\n", report.SpendUSD)
	fmt.Printf("Budget:        $%.2f\n", report.BudgetUSD)
	fmt.Printf("Remaining:     $%.6f\n", report.RemainingUSD)

	if report.BudgetReached {
		fmt.Println("\nBudget reached: the chatbot is serving fallback answers.")
	}
}
