package classify

// Format enum reported by the classifier
type Format string

const (
	FormatEmail   Format = "email"
	FormatJSON    Format = "json"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// Intent enum
type Intent string

const (
	IntentRFQ        Intent = "RFQ"
	IntentComplaint  Intent = "Complaint"
	IntentInvoice    Intent = "Invoice"
	IntentRegulation Intent = "Regulation"
	IntentFraudRisk  Intent = "FraudRisk"
	IntentUnknown    Intent = "unknown"
)

// Tone enum
type Tone string

const (
	ToneNeutral     Tone = "neutral"
	ToneAngry       Tone = "angry"
	ToneHappy       Tone = "happy"
	ToneThreatening Tone = "threatening"
	ToneEscalated   Tone = "escalated"
	TonePolite      Tone = "polite"
	ToneUnknown     Tone = "unknown"
)

// Verdict is the structured classification of one raw input. All enum and
// boolean fields are always populated; Normalize applies the defaults.
type Verdict struct {
	Format         Format `json:"format"`
	Intent         Intent `json:"intent"`
	Tone           Tone   `json:"tone"`
	AnomalyFlagged bool   `json:"anomaly_flagged"`
	RiskTriggered  bool   `json:"risk_triggered"`
	Diagnostic     string `json:"raw_response,omitempty"`
}

var validFormats = map[Format]bool{
	FormatEmail: true, FormatJSON: true, FormatPDF: true, FormatUnknown: true,
}

var validIntents = map[Intent]bool{
	IntentRFQ: true, IntentComplaint: true, IntentInvoice: true,
	IntentRegulation: true, IntentFraudRisk: true, IntentUnknown: true,
}

var validTones = map[Tone]bool{
	ToneNeutral: true, ToneAngry: true, ToneHappy: true, ToneThreatening: true,
	ToneEscalated: true, TonePolite: true, ToneUnknown: true,
}

// Normalize fills absent or invalid enum fields with their defaults so the
// verdict handed to callers is always complete.
func (v Verdict) Normalize() Verdict {
	if !validFormats[v.Format] {
		v.Format = FormatUnknown
	}
	if !validIntents[v.Intent] {
		v.Intent = IntentUnknown
	}
	if v.Tone == "" || !validTones[v.Tone] {
		v.Tone = ToneNeutral
	}
	return v
}

// Default builds the fallback verdict used when the classifier is
// unavailable. The format is inferred from the ingestion channel.
func Default(format Format, diagnostic string) Verdict {
	return Verdict{
		Format:         format,
		Intent:         IntentUnknown,
		Tone:           ToneNeutral,
		AnomalyFlagged: false,
		RiskTriggered:  false,
		Diagnostic:     diagnostic,
	}.Normalize()
}
