package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"intake-triage/internal/application"
	"intake-triage/internal/domain/actions"
	"intake-triage/internal/domain/triage"
	"intake-triage/internal/infra/docextract"
)

// totalPattern anchors a two-decimal currency amount to a Total label,
// optionally separated by : or - and a currency sign.
var totalPattern = regexp.MustCompile(`(?i)Total\s*[:\-]?\s*\$?([\d,]+\.\d{2})`)

// DocumentAgent extracts text from uploaded documents, locates an invoice
// total, scans for compliance terms, and raises a risk alert when either
// condition triggers. Identical byte content always yields identical
// findings.
type DocumentAgent struct {
	Extractor       docextract.Extractor
	Dispatcher      actions.Dispatcher
	Clock           application.Clock
	ComplianceTerms []string
	RiskThreshold   float64
}

func NewDocumentAgent(extractor docextract.Extractor, dispatcher actions.Dispatcher, clock application.Clock, complianceTerms []string, riskThreshold float64) *DocumentAgent {
	return &DocumentAgent{
		Extractor:       extractor,
		Dispatcher:      dispatcher,
		Clock:           clock,
		ComplianceTerms: complianceTerms,
		RiskThreshold:   riskThreshold,
	}
}

func (a *DocumentAgent) Analyze(ctx context.Context, fileBytes []byte) triage.AgentResult {
	trace := []string{}

	text, err := a.Extractor.Text(fileBytes)
	if err != nil {
		text = ""
		trace = append(trace, fmt.Sprintf("Text extraction failed, continuing with empty text: %v", err))
	}

	total := ExtractInvoiceTotal(text)
	mentions := a.detectComplianceTerms(text)

	trace = append(trace, fmt.Sprintf("Extracted total: %.2f", total))
	trace = append(trace, fmt.Sprintf("Compliance mentions: %v", mentions))

	triggered := false
	if total > a.RiskThreshold {
		triggered = true
		trace = append(trace, fmt.Sprintf("Invoice total exceeds %.0f. Risk triggered.", a.RiskThreshold))
	}
	if len(mentions) > 0 {
		triggered = true
		trace = append(trace, fmt.Sprintf("Compliance terms found: %v. Risk triggered.", mentions))
	}

	if triggered {
		payload := map[string]any{"total": total, "compliance_flags": mentions}
		if err := a.Dispatcher.Dispatch(ctx, actions.KindRiskAlert, payload); err != nil {
			trace = append(trace, fmt.Sprintf("Failed to send risk alert to endpoint: %v", err))
		} else {
			trace = append(trace, "Risk alert sent to endpoint.")
		}
	}

	return triage.AgentResult{
		Agent:         "pdf_agent",
		ProducedAt:    a.Clock.Now().UTC(),
		DecisionTrace: trace,
		Document: &triage.DocumentFindings{
			InvoiceTotal:       total,
			ComplianceMentions: mentions,
			RiskTriggered:      triggered,
		},
	}
}

// ExtractInvoiceTotal parses the first Total-labelled currency amount.
// Thousands separators are stripped; malformed or absent totals parse to
// exactly 0.00, never an error.
func ExtractInvoiceTotal(text string) float64 {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0.0
	}
	total, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0.0
	}
	return total
}

func (a *DocumentAgent) detectComplianceTerms(text string) []string {
	upper := strings.ToUpper(text)
	mentions := []string{}
	for _, term := range a.ComplianceTerms {
		if strings.Contains(upper, strings.ToUpper(term)) {
			mentions = append(mentions, term)
		}
	}
	return mentions
}
