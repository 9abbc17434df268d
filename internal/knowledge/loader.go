// Package knowledge loads the curated Q&A knowledge base and matches user
// questions against it, first by exact text and then, when an embedding
// backend is configured, by semantic similarity. Matches are free; every
// match avoids a paid generation call.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// qaFile is the on-disk shape of the knowledge base JSON.
type qaFile struct {
	QAPairs []models.QAPair `json:"qa_pairs"`
}

// LoadFile reads Q&A pairs from a JSON file. Entries without a language tag
// default to English. Load order is preserved; the matcher's first-match-wins
// rule depends on it.
func LoadFile(path string) ([]models.QAPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}

	var file qaFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base %s: %w", path, err)
	}

	for i := range file.QAPairs {
		if file.QAPairs[i].Lang == "" {
			file.QAPairs[i].Lang = models.LangEnglish
		}
	}

	return file.QAPairs, nil
}

// FilterLang returns the pairs tagged with lang, preserving order.
func FilterLang(pairs []models.QAPair, lang models.Language) []models.QAPair {
	out := make([]models.QAPair, 0, len(pairs))
	for _, p := range pairs {
		if p.Lang == lang {
			out = append(out, p)
		}
	}
	return out
}
