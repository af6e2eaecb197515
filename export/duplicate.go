package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/eugene-nechvoloda/meetyai/llm"
)

const judgmentMaxTokens = 500

// Judgment is the duplicate-judgment verdict for one candidate record.
type Judgment struct {
	IsDuplicate     bool   `json:"isDuplicate"`
	MatchedRecordID string `json:"matchedRecordId"`
	Explanation     string `json:"explanation"`
}

// Judge decides whether a candidate export payload duplicates a record
// already present at the destination. It fails open: any model or parse
// failure yields a not-duplicate verdict so exports are never blocked by
// the judgment path.
type Judge struct {
	client llm.Client
	model  string
	logger *slog.Logger
}

// NewJudge creates a duplicate judge backed by the given model.
func NewJudge(client llm.Client, model string, logger *slog.Logger) *Judge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Judge{client: client, model: model, logger: logger}
}

// Check classifies the candidate payload against existing records. An
// empty record set is trivially not a duplicate.
func (j *Judge) Check(ctx context.Context, candidate map[string]any, existing []Record) Judgment {
	if len(existing) == 0 {
		return Judgment{}
	}

	resp, err := j.client.Complete(ctx, llm.CompletionRequest{
		Model:     j.model,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: judgmentPrompt(candidate, existing)}},
		MaxTokens: judgmentMaxTokens,
	})
	if err != nil {
		j.logger.Warn("duplicate judgment call failed, allowing export", "error", err)
		return Judgment{}
	}

	var verdict Judgment
	if err := llm.DecodeJSON(resp.Content, &verdict); err != nil {
		j.logger.Warn("duplicate judgment returned unparseable verdict, allowing export", "error", err)
		return Judgment{}
	}
	return verdict
}

func judgmentPrompt(candidate map[string]any, existing []Record) string {
	var b strings.Builder
	b.WriteString("You are analyzing whether a new insight is a TRUE DUPLICATE of existing records at the destination.\n\n")
	b.WriteString("NEW INSIGHT TO BE ADDED:\n")
	writeFields(&b, candidate)

	b.WriteString("\nEXISTING RECORDS AT THE DESTINATION:\n")
	for i, rec := range existing {
		fmt.Fprintf(&b, "Record %d (ID: %s):\n", i+1, rec.ID)
		writeFields(&b, rec.Fields)
		b.WriteString("\n")
	}

	b.WriteString(`CRITICAL: Be VERY STRICT about duplicates. An insight is ONLY a duplicate if ALL of these conditions are met:

1. SAME SPEAKER/AUTHOR: the speaker/author field must match exactly or be clearly the same person
2. SAME SOURCE/COMPANY: must be from the same company/organization/conversation
3. SAME SPECIFIC INSIGHT: must be the exact same finding, just reworded slightly
4. SAME EVIDENCE/QUOTE: the quote or evidence should reference the same statement or context

DO NOT mark as duplicate if:
- Different speakers are talking about similar topics (e.g., "John from Acme complaining about onboarding" vs "Sarah from Beta complaining about onboarding" = NOT DUPLICATES, export both!)
- Same speaker but different specific issues (e.g., "slow onboarding" vs "missing features" = NOT DUPLICATES)
- Similar themes but different contexts or details
- Different companies/sources discussing the same general problem

EXAMPLES OF TRUE DUPLICATES (should skip):
- Record 1: Speaker="John Smith, Acme Corp", Quote="Our onboarding takes 3 days which is too long"
- Record 2: Speaker="John Smith, Acme", Quote="The onboarding process is taking us about 3 days"
-> DUPLICATE (same person, same company, same specific issue, just reworded)

EXAMPLES OF NOT DUPLICATES (should export both):
- Record 1: Speaker="John, Acme Corp", Quote="Onboarding is too slow"
- Record 2: Speaker="Sarah, Beta Inc", Quote="Our onboarding process is slow too"
-> NOT DUPLICATE (different speakers, different companies, even if similar topic)

Only mark as duplicate if you are HIGHLY CONFIDENT (>95%) that it is the exact same insight from the same person/source.

Respond in JSON format:
{
  "isDuplicate": true/false,
  "matchedRecordId": "record ID if duplicate, null otherwise",
  "explanation": "brief explanation focusing on speaker/source comparison"
}`)
	return b.String()
}

// writeFields renders a field map in stable key order so identical inputs
// produce identical prompts.
func writeFields(b *strings.Builder, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %v\n", k, fields[k])
	}
}
