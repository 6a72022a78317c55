package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"intake-triage/internal/domain/classify"
)

// GetSystemPrompt provides strict directions and schema for the verdict JSON.
func GetSystemPrompt() string {
	return `You are an advanced classifier for a document triage system. Given any input (email text, JSON, or PDF content/filename), produce one valid JSON object only (no markdown, no commentary, no code fences):
- Detect the format: one of ["email", "json", "pdf"]
- Detect the business intent: one of ["RFQ", "Complaint", "Invoice", "Regulation", "FraudRisk"]
- Detect the tone: one of ["neutral", "angry", "happy", "threatening", "escalated"]
- If input is JSON, use schema matching to help determine format and intent.
- If input is email, look for sender, request/issue, and tone.
- If input is PDF, look for invoice or compliance keywords.

Schema (example with empty values):
{
  "classification": {"format": "<string>", "intent": "<string>", "tone": "<string>"},
  "anomaly_flagged": false,
  "risk_triggered": false
}

Examples:

Input:
From: John Doe <john@example.com>
Subject: Urgent Complaint
Body: I am very upset with your service. Please resolve this ASAP.
Output:
{"classification": {"format": "email", "intent": "Complaint", "tone": "angry"}, "anomaly_flagged": false, "risk_triggered": false}

Input:
{"event_id": "123", "timestamp": "2024-06-01T12:00:00Z", "user_id": "u456", "amount": 15000}
Output:
{"classification": {"format": "json", "intent": "Invoice", "tone": "neutral"}, "anomaly_flagged": false, "risk_triggered": true}

Input:
PDF file containing: Invoice Total: $12,000
Policy: GDPR
Output:
{"classification": {"format": "pdf", "intent": "Invoice", "tone": "neutral"}, "anomaly_flagged": false, "risk_triggered": true}`
}

// GetUserPrompt wraps the raw input for the classification query.
func GetUserPrompt(input string) string {
	return fmt.Sprintf("Now classify this input:\n%s\nReturn ONLY the JSON object as shown above.", input)
}

// GetTonePrompt builds the dedicated tone query. The response must be a
// single word from the closed vocabulary.
func GetTonePrompt(text string) string {
	if len(text) > 1000 {
		text = text[:1000]
	}
	return fmt.Sprintf(`Detect the tone of this email. Choose one from:
[polite, angry, escalated, neutral, threatening]

Email: %q
Return ONLY one word.`, text)
}

// verdictEnvelope matches the JSON the model is asked to emit
type verdictEnvelope struct {
	Classification struct {
		Format string `json:"format"`
		Intent string `json:"intent"`
		Tone   string `json:"tone"`
	} `json:"classification"`
	AnomalyFlagged bool `json:"anomaly_flagged"`
	RiskTriggered  bool `json:"risk_triggered"`
}

// StripFences removes markdown code fences some models wrap around JSON.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```json") {
		raw = strings.TrimPrefix(raw, "```json")
	} else if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// ParseVerdict turns a raw model response into a normalized verdict. The
// raw text is preserved as the diagnostic either way. An unparseable
// response yields an error; callers fall back to the default verdict.
func ParseVerdict(raw string) (classify.Verdict, error) {
	cleaned := StripFences(raw)

	var env verdictEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return classify.Verdict{}, fmt.Errorf("parse verdict json: %w", err)
	}

	// FraudRisk is sometimes emitted with a space
	intent := strings.ReplaceAll(env.Classification.Intent, " ", "")

	v := classify.Verdict{
		Format:         classify.Format(strings.ToLower(strings.TrimSpace(env.Classification.Format))),
		Intent:         classify.Intent(intent),
		Tone:           classify.Tone(strings.ToLower(strings.TrimSpace(env.Classification.Tone))),
		AnomalyFlagged: env.AnomalyFlagged,
		RiskTriggered:  env.RiskTriggered,
		Diagnostic:     cleaned,
	}
	return v.Normalize(), nil
}

// ParseTone validates a tone reply against the closed vocabulary, falling
// back to neutral on anything unrecognized.
func ParseTone(raw string) classify.Tone {
	word := strings.ToLower(strings.TrimSpace(StripFences(raw)))
	word = strings.Trim(word, `."'`)
	switch classify.Tone(word) {
	case classify.TonePolite, classify.ToneAngry, classify.ToneEscalated,
		classify.ToneNeutral, classify.ToneThreatening:
		return classify.Tone(word)
	default:
		return classify.ToneNeutral
	}
}
