package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"intake-triage/internal/application"
	"intake-triage/internal/domain/actions"
	"intake-triage/internal/domain/classify"
	"intake-triage/internal/domain/triage"
)

var (
	senderPattern  = regexp.MustCompile(`From:\s*(.+)`)
	bodyPattern    = regexp.MustCompile(`(?s)Body:\s*(.+)`)
	subjectPattern = regexp.MustCompile(`Subject:.*\n(.+)`)
)

// escalatingTones are the tones that, combined with high urgency, trigger
// the escalation side effect.
var escalatingTones = map[classify.Tone]bool{
	classify.ToneAngry:       true,
	classify.ToneEscalated:   true,
	classify.ToneThreatening: true,
}

// EmailAgent analyzes raw correspondence text. It is a pure function of
// its input apart from the tone query and the escalation dispatch, and it
// never fails: every degradation becomes a trace entry instead.
type EmailAgent struct {
	Classifier      classify.Classifier
	Dispatcher      actions.Dispatcher
	Clock           application.Clock
	UrgencyKeywords []string
}

func NewEmailAgent(classifier classify.Classifier, dispatcher actions.Dispatcher, clock application.Clock, urgencyKeywords []string) *EmailAgent {
	return &EmailAgent{
		Classifier:      classifier,
		Dispatcher:      dispatcher,
		Clock:           clock,
		UrgencyKeywords: urgencyKeywords,
	}
}

func (a *EmailAgent) Analyze(ctx context.Context, emailText string) triage.AgentResult {
	trace := []string{}

	sender := a.extractSender(emailText)
	trace = append(trace, fmt.Sprintf("Extracted sender: %s", sender))

	urgency := a.extractUrgency(emailText)
	trace = append(trace, fmt.Sprintf("Urgency classified as %s", urgency))

	issue := a.extractIssue(emailText)

	tone := a.detectTone(ctx, emailText, &trace)

	action := triage.EscalationLogged
	if escalatingTones[tone] && urgency == triage.UrgencyHigh {
		trace = append(trace, fmt.Sprintf("Tone %s with high urgency, attempting CRM escalation", tone))
		payload := map[string]any{"sender": sender, "issue": issue}
		if err := a.Dispatcher.Dispatch(ctx, actions.KindEscalate, payload); err != nil {
			action = triage.EscalationError
			trace = append(trace, fmt.Sprintf("Escalation call failed: %v", err))
		} else {
			action = triage.EscalationEscalated
			trace = append(trace, "Escalation call succeeded")
		}
	} else {
		trace = append(trace, "No escalation condition met, logged only")
	}

	return triage.AgentResult{
		Agent:         "email_agent",
		ProducedAt:    a.Clock.Now().UTC(),
		DecisionTrace: trace,
		Email: &triage.EmailFindings{
			Sender:  sender,
			Urgency: urgency,
			Issue:   issue,
			Tone:    tone,
			Action:  action,
		},
	}
}

func (a *EmailAgent) extractSender(emailText string) string {
	if m := senderPattern.FindStringSubmatch(emailText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "unknown"
}

func (a *EmailAgent) extractUrgency(emailText string) triage.Urgency {
	lower := strings.ToLower(emailText)
	for _, kw := range a.UrgencyKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return triage.UrgencyHigh
		}
	}
	return triage.UrgencyNormal
}

// extractIssue prefers content after a Body: marker, then the first line
// after Subject:, then the whole text.
func (a *EmailAgent) extractIssue(emailText string) string {
	if m := bodyPattern.FindStringSubmatch(emailText); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := subjectPattern.FindStringSubmatch(emailText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(emailText)
}

func (a *EmailAgent) detectTone(ctx context.Context, emailText string, trace *[]string) classify.Tone {
	tone, err := a.Classifier.DetectTone(ctx, emailText)
	if err != nil {
		*trace = append(*trace, fmt.Sprintf("Tone query failed, defaulting to neutral: %v", err))
		return classify.ToneNeutral
	}
	*trace = append(*trace, fmt.Sprintf("Tone detected as %s", tone))
	return tone
}
