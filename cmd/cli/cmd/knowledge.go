package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/civilmastersolution/cms-backend/internal/knowledge"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Inspect the chatbot knowledge base",
}

var knowledgeValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a knowledge base file",
	Long: `Validate a knowledge base JSON file.

Parses the file, counts Q&A pairs per language and reports duplicate
questions. Duplicates are answered first-match-wins at runtime, so any
duplicate after the first is dead weight.`,
	Args: cobra.ExactArgs(1),
	RunE: runKnowledgeValidate,
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.AddCommand(knowledgeValidateCmd)
}

// KnowledgeReport summarizes a validated knowledge base file.
type KnowledgeReport struct {
	Path       string         `json:"path"`
	TotalPairs int            `json:"total_pairs"`
	ByLanguage map[string]int `json:"by_language"`
	Duplicates []string       `json:"duplicates,omitempty"`
	Empty      int            `json:"empty_entries,omitempty"`
}

func runKnowledgeValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	pairs, err := knowledge.LoadFile(path)
	if err != nil {
		return err
	}

	report := KnowledgeReport{
		Path:       path,
		TotalPairs: len(pairs),
		ByLanguage: make(map[string]int),
	}

	seen := make(map[string]bool)
	for _, p := range pairs {
		report.ByLanguage[string(p.Lang)]++

		if strings.TrimSpace(p.Question) == "" || strings.TrimSpace(p.Answer) == "" {
			report.Empty++
			continue
		}

		// Runtime matching is case-insensitive, so duplicates are too.
		key := string(p.Lang) + "|" + strings.ToLower(strings.TrimSpace(p.Question))
		if seen[key] {
			report.Duplicates = append(report.Duplicates, p.Question)
		}
		seen[key] = true
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		printKnowledgeReport(report)
	}

	if report.Empty > 0 {
		return fmt.Errorf("%d entries have an empty question or answer", report.Empty)
	}
	return nil
}

func printKnowledgeReport(report KnowledgeReport) {
	fmt.Println("Knowledge Base Report")
	fmt.Println("=====================")
	fmt.Println()
	fmt.Printf("File:          %s\n", report.Path)
	fmt.Printf("Total Pairs:   %d\n", report.TotalPairs)

	if len(report.ByLanguage) > 0 {
		fmt.Println("\nBy Language:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, lang := range []models.Language{models.LangEnglish, models.LangThai} {
			if n, ok := report.ByLanguage[string(lang)]; ok {
				fmt.Fprintf(w, "  %s\t%d\n", lang, n)
			}
		}
		w.Flush()
	}

	if len(report.Duplicates) > 0 {
		fmt.Printf("\nDuplicate Questions (%d):\n", len(report.Duplicates))
		for _, q := range report.Duplicates {
			fmt.Printf("  %s\n", q)
		}
	}

	if report.Empty > 0 {
		fmt.Printf("\nEmpty Entries:  %d\n", report.Empty)
	}
}
