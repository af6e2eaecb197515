package meetyai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eugene-nechvoloda/meetyai/insight"
)

// Tuning constants for the model-calling stages.
const (
	// researchDepth scales how many insights each pass should target per
	// hour of conversation.
	researchDepth = 0.7

	classifyPrefixChars = 2000

	classifyTemperature = 0.3
	extractTemperature  = 0.35
	refineTemperature   = 0.3

	classifyMaxTokens = 1024
	extractMaxTokens  = 8192
	refineMaxTokens   = 4096
)

// Categories the classifier may return. Anything else is coerced to
// CategoryOther.
const CategoryOther = "other"

var ClassificationCategories = []string{
	"research_call",
	"feedback_session",
	"usability_testing",
	"sales_demo",
	"support_call",
	"general_interview",
	"internal_meeting",
	"customer_onboarding",
	"strategy_session",
	CategoryOther,
}

// KnownCategory reports whether c is in the fixed classification set.
func KnownCategory(c string) bool {
	for _, known := range ClassificationCategories {
		if c == known {
			return true
		}
	}
	return false
}

// PassTypes lists each extraction pass's disjoint insight-type set, in
// pass order. The merge order of results depends on this ordering.
var PassTypes = [][]insight.Type{
	{insight.TypePain, insight.TypeBlocker, insight.TypeOpportunity},
	{insight.TypeFeatureRequest, insight.TypeIdea, insight.TypeOutcome},
	{insight.TypeQuestion, insight.TypeFeedback, insight.TypeConfusion},
	{insight.TypeGain, insight.TypeBuyingSignal, insight.TypeObjection, insight.TypeInsight},
}

// classifyPrompt asks for a single category from the closed set. Long
// transcripts are classified from a fixed-size prefix only.
func classifyPrompt(text string) string {
	if len(text) > classifyPrefixChars {
		text = text[:classifyPrefixChars]
	}

	var b strings.Builder
	b.WriteString("Classify this meeting transcript into one of the following categories:\n")
	for _, c := range ClassificationCategories {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString(`
Return JSON only:
{
  "context": "category_name",
  "confidence": 0.0-1.0,
  "reasoning": "Brief explanation"
}

Transcript:
`)
	b.WriteString(text)
	return b.String()
}

// extractSystemPrompt builds the system prompt for one extraction pass.
func extractSystemPrompt(types []insight.Type, customContext string) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	typeList := strings.Join(names, ", ")

	var b strings.Builder
	b.WriteString("You are MeetyAI Analysis Engine. Your task is to analyze meeting transcripts and identify insights.\n\n")
	if customContext != "" {
		b.WriteString("CUSTOM CONTEXT:\n")
		b.WriteString(customContext)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Extract the following types of insights: %s.\n\n", typeList)
	fmt.Fprintf(&b, `For each insight, extract:
- Type (one of: %s)
- Raw content (what was said)
- Evidence (direct quote from transcript)
- Speaker (who said it)
- Timestamp (if available in format HH:MM:SS)
- Context (surrounding conversation)
- Confidence (0.0 to 1.0)

Format your response as JSON only:
{
  "raw_insights": [
    {
      "type": "pain",
      "raw_content": "User expressed frustration...",
      "evidence": "Direct quote from transcript",
      "speaker": "Speaker name",
      "timestamp": "00:15:23",
      "context": "Surrounding conversation",
      "confidence": 0.85
    }
  ]
}

Extract approximately %d insights per hour of conversation.
Be thorough but avoid duplicates.
Focus on actionable insights.`, typeList, int(researchDepth*10))
	return b.String()
}

// extractUserPrompt wraps the transcript for an extraction pass.
func extractUserPrompt(text string) string {
	return "Analyze this transcript:\n\n" + text
}

// refineSystemPrompt builds the writing-stage system prompt.
func refineSystemPrompt(customContext, insightExamples string) string {
	var b strings.Builder
	b.WriteString("You are MeetyAI Writing Engine. Your task is to write clear, actionable insight titles and descriptions.\n\n")
	if customContext != "" {
		b.WriteString("CUSTOM CONTEXT:\n")
		b.WriteString(customContext)
		b.WriteString("\n\n")
	}
	if insightExamples != "" {
		b.WriteString("EXAMPLES:\n")
		b.WriteString(insightExamples)
		b.WriteString("\n\n")
	}
	b.WriteString(`For each raw insight, write:
1. **Title**: Clear, concise (max 10 words), action-oriented
2. **Description**: Detailed but scannable (2-3 sentences), includes what it is, why it matters, and suggested next steps

Writing guidelines:
- Use active voice
- Be specific and concrete
- Avoid jargon unless necessary
- Match the tone from examples
- Ensure consistency

Return JSON only:
{
  "insights": [
    {
      "title": "Login process causes user frustration",
      "description": "Users are experiencing significant delays...",
      "type": "pain",
      "evidence": "original evidence",
      "speaker": "original speaker",
      "timestamp": "original timestamp",
      "confidence": 0.85
    }
  ]
}`)
	return b.String()
}

// refineUserPrompt serializes the raw insights for the writing model.
func refineUserPrompt(raw []insight.RawInsight) (string, error) {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal raw insights: %w", err)
	}
	return "Refine these raw insights:\n\n" + string(data), nil
}
