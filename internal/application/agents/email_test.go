package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"intake-triage/internal/domain/actions"
	"intake-triage/internal/domain/classify"
	"intake-triage/internal/domain/triage"
)

var defaultKeywords = []string{"urgent", "immediate", "asap", "high priority"}

func newEmailAgent(classifier *fakeClassifier, dispatcher *fakeDispatcher) *EmailAgent {
	return NewEmailAgent(classifier, dispatcher, testClock, defaultKeywords)
}

func TestEmailAgentExtractsSender(t *testing.T) {
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneNeutral}, &fakeDispatcher{})

	res := agent.Analyze(context.Background(), "From: John Doe <john@example.com>\nSubject: Hello\nBody: Hi")
	if got := res.Email.Sender; got != "John Doe <john@example.com>" {
		t.Fatalf("sender = %q", got)
	}
}

func TestEmailAgentSenderDefaultsToUnknown(t *testing.T) {
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneNeutral}, &fakeDispatcher{})

	res := agent.Analyze(context.Background(), "no headers at all")
	if res.Email.Sender != "unknown" {
		t.Fatalf("sender = %q, want unknown", res.Email.Sender)
	}
}

func TestEmailAgentUrgency(t *testing.T) {
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneNeutral}, &fakeDispatcher{})

	cases := []struct {
		text string
		want triage.Urgency
	}{
		{"please fix this ASAP", triage.UrgencyHigh},
		{"HIGH PRIORITY: server down", triage.UrgencyHigh},
		{"this is urgent", triage.UrgencyHigh},
		{"just checking in", triage.UrgencyNormal},
	}
	for _, tc := range cases {
		res := agent.Analyze(context.Background(), tc.text)
		if res.Email.Urgency != tc.want {
			t.Errorf("urgency(%q) = %s, want %s", tc.text, res.Email.Urgency, tc.want)
		}
	}
}

func TestEmailAgentIssueExtraction(t *testing.T) {
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneNeutral}, &fakeDispatcher{})

	res := agent.Analyze(context.Background(), "From: a@x.com\nSubject: S\nBody: the printer is on fire")
	if res.Email.Issue != "the printer is on fire" {
		t.Fatalf("issue = %q", res.Email.Issue)
	}

	res = agent.Analyze(context.Background(), "Subject: broken login\nusers cannot sign in")
	if res.Email.Issue != "users cannot sign in" {
		t.Fatalf("issue = %q, want first line after subject", res.Email.Issue)
	}

	res = agent.Analyze(context.Background(), "  free-form message  ")
	if res.Email.Issue != "free-form message" {
		t.Fatalf("issue = %q, want full text fallback", res.Email.Issue)
	}
}

func TestEmailAgentEscalatesAngryHighUrgency(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneAngry}, dispatcher)

	res := agent.Analyze(context.Background(), "From: a@x.com\nSubject: Complaint\nBody: I am furious, fix this ASAP.")

	if res.Email.Action != triage.EscalationEscalated {
		t.Fatalf("action = %s, want escalated", res.Email.Action)
	}
	calls := dispatcher.recorded()
	if len(calls) != 1 || calls[0].kind != actions.KindEscalate {
		t.Fatalf("expected one escalate dispatch, got %v", calls)
	}
	payload, ok := calls[0].payload.(map[string]any)
	if !ok || payload["sender"] != "a@x.com" {
		t.Fatalf("escalation payload = %v", calls[0].payload)
	}
}

func TestEmailAgentEscalationFailureRecordsError(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("connection refused")}
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneThreatening}, dispatcher)

	res := agent.Analyze(context.Background(), "Body: do it immediately or else")
	if res.Email.Action != triage.EscalationError {
		t.Fatalf("action = %s, want error", res.Email.Action)
	}
	if !traceContains(res.DecisionTrace, "Escalation call failed") {
		t.Fatalf("trace missing failure entry: %v", res.DecisionTrace)
	}
}

func TestEmailAgentNoEscalationWithoutHighUrgency(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneAngry}, dispatcher)

	res := agent.Analyze(context.Background(), "Body: I am not happy about this.")
	if res.Email.Action != triage.EscalationLogged {
		t.Fatalf("action = %s, want logged", res.Email.Action)
	}
	if len(dispatcher.recorded()) != 0 {
		t.Fatal("dispatcher should not have been called")
	}
}

func TestEmailAgentNoEscalationForNeutralTone(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newEmailAgent(&fakeClassifier{tone: classify.ToneNeutral}, dispatcher)

	res := agent.Analyze(context.Background(), "Body: urgent but perfectly calm request")
	if res.Email.Action != triage.EscalationLogged {
		t.Fatalf("action = %s, want logged", res.Email.Action)
	}
}

func TestEmailAgentToneQueryFailureDefaultsNeutral(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newEmailAgent(&fakeClassifier{err: errors.New("model down")}, dispatcher)

	res := agent.Analyze(context.Background(), "Body: urgent complaint")
	if res.Email.Tone != classify.ToneNeutral {
		t.Fatalf("tone = %s, want neutral fallback", res.Email.Tone)
	}
	if len(dispatcher.recorded()) != 0 {
		t.Fatal("neutral fallback must not escalate")
	}
	if !traceContains(res.DecisionTrace, "Tone query failed") {
		t.Fatalf("trace missing degradation entry: %v", res.DecisionTrace)
	}
}

func traceContains(trace []string, substr string) bool {
	for _, line := range trace {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
