package triage

import (
	"time"

	"intake-triage/internal/domain/classify"
)

// SourceKind identifies the ingestion channel of one raw input. Analyzer
// selection is driven by the channel, not by the classified format, since
// the channel determines the actual shape of the content.
type SourceKind string

const (
	SourceEmailUpload SourceKind = "email_upload"
	SourceJSONWebhook SourceKind = "json_webhook"
	SourcePDFUpload   SourceKind = "pdf_upload"
)

// InferredFormat maps the ingestion channel to the format used for the
// fallback verdict when the classifier is unavailable.
func (s SourceKind) InferredFormat() classify.Format {
	switch s {
	case SourceEmailUpload:
		return classify.FormatEmail
	case SourceJSONWebhook:
		return classify.FormatJSON
	case SourcePDFUpload:
		return classify.FormatPDF
	default:
		return classify.FormatUnknown
	}
}

// Urgency enum for correspondence
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyNormal Urgency = "normal"
)

// EscalationOutcome records what the email agent did about an escalation
type EscalationOutcome string

const (
	EscalationLogged    EscalationOutcome = "logged"
	EscalationEscalated EscalationOutcome = "escalated"
	EscalationError     EscalationOutcome = "error"
)

// SchemaStatus enum for structured records
type SchemaStatus string

const (
	SchemaValid   SchemaStatus = "valid"
	SchemaInvalid SchemaStatus = "invalid"
)

// EmailFindings is the correspondence variant payload
type EmailFindings struct {
	Sender  string            `json:"sender"`
	Urgency Urgency           `json:"urgency"`
	Issue   string            `json:"issue"`
	Tone    classify.Tone     `json:"tone"`
	Action  EscalationOutcome `json:"action"`
}

// RecordFindings is the structured-record variant payload
type RecordFindings struct {
	SchemaStatus   SchemaStatus   `json:"schema_status"`
	AnomalyFlagged bool           `json:"anomaly_flagged"`
	Payload        map[string]any `json:"payload"`
}

// DocumentFindings is the document variant payload
type DocumentFindings struct {
	InvoiceTotal       float64  `json:"invoice_total"`
	ComplianceMentions []string `json:"compliance_mentions"`
	RiskTriggered      bool     `json:"risk_triggered"`
}

// AgentResult is the tagged-variant analyzer output. Exactly one of Email,
// Record, Document is populated per run, selected by the ingestion channel.
// The decision trace is append-only during analysis and never mutated after
// the analyzer returns.
type AgentResult struct {
	Agent         string            `json:"agent"`
	ProducedAt    time.Time         `json:"timestamp"`
	DecisionTrace []string          `json:"decision_trace"`
	Email         *EmailFindings    `json:"email,omitempty"`
	Record        *RecordFindings   `json:"record,omitempty"`
	Document      *DocumentFindings `json:"document,omitempty"`
}

// RoutingOutcome is the policy router's report for one run. Tokens in
// ActionsTriggered are action names, or "error:<message>" when a dispatch
// failed.
type RoutingOutcome struct {
	Agent            string    `json:"agent"`
	ProducedAt       time.Time `json:"timestamp"`
	ActionsTriggered []string  `json:"actions_triggered"`
	DecisionTrace    []string  `json:"decision_trace"`
}

// PipelineResult is the API-facing result of one orchestrator run.
type PipelineResult struct {
	RunID          string          `json:"run_id"`
	Classification classify.Verdict `json:"classification"`
	AgentData      AgentResult     `json:"agent_data"`
	Actions        RoutingOutcome  `json:"actions"`
}
