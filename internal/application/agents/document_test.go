package agents

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"intake-triage/internal/domain/actions"
)

// stubExtractor returns canned text regardless of input bytes.
type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Text(data []byte) (string, error) {
	return s.text, s.err
}

var defaultTerms = []string{"GDPR", "FDA", "HIPAA"}

func newDocumentAgent(extractor stubExtractor, dispatcher *fakeDispatcher) *DocumentAgent {
	return NewDocumentAgent(extractor, dispatcher, testClock, defaultTerms, 10000)
}

func TestExtractInvoiceTotal(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"Invoice\nTotal: $12,000.00\nThanks", 12000.00},
		{"total - 999.99", 999.99},
		{"Grand Total $1,234.56", 1234.56},
		{"no amount here", 0.0},
		{"Total: twelve dollars", 0.0},
		{"", 0.0},
	}
	for _, tc := range cases {
		if got := ExtractInvoiceTotal(tc.text); got != tc.want {
			t.Errorf("ExtractInvoiceTotal(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestDocumentAgentHighTotalTriggersRisk(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newDocumentAgent(stubExtractor{text: "Invoice\nTotal: $12,000.00"}, dispatcher)

	res := agent.Analyze(context.Background(), []byte("%PDF-1.4"))

	doc := res.Document
	if doc.InvoiceTotal != 12000.00 {
		t.Fatalf("total = %v", doc.InvoiceTotal)
	}
	if !doc.RiskTriggered {
		t.Fatal("total above threshold must trigger risk")
	}
	if len(doc.ComplianceMentions) != 0 {
		t.Fatalf("mentions = %v, want empty", doc.ComplianceMentions)
	}
	calls := dispatcher.recorded()
	if len(calls) != 1 || calls[0].kind != actions.KindRiskAlert {
		t.Fatalf("expected one risk_alert dispatch, got %v", calls)
	}
	if !traceContains(res.DecisionTrace, "Risk alert sent to endpoint.") {
		t.Fatalf("trace: %v", res.DecisionTrace)
	}
}

func TestDocumentAgentThresholdIsExclusive(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newDocumentAgent(stubExtractor{text: "Total: 10000.00"}, dispatcher)

	res := agent.Analyze(context.Background(), nil)
	if res.Document.RiskTriggered {
		t.Fatal("total equal to threshold must not trigger risk")
	}
	if len(dispatcher.recorded()) != 0 {
		t.Fatal("no dispatch expected at the threshold")
	}
}

func TestDocumentAgentComplianceTermTriggersRisk(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newDocumentAgent(stubExtractor{text: "This policy follows gdpr rules. Total: 50.00"}, dispatcher)

	res := agent.Analyze(context.Background(), nil)

	doc := res.Document
	if !doc.RiskTriggered {
		t.Fatal("compliance mention must trigger risk regardless of total")
	}
	if !reflect.DeepEqual(doc.ComplianceMentions, []string{"GDPR"}) {
		t.Fatalf("mentions = %v", doc.ComplianceMentions)
	}
}

func TestDocumentAgentDispatchFailureStaysInTrace(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("endpoint down")}
	agent := newDocumentAgent(stubExtractor{text: "Total: 99,999.99"}, dispatcher)

	res := agent.Analyze(context.Background(), nil)
	if !res.Document.RiskTriggered {
		t.Fatal("risk decision must not depend on dispatch success")
	}
	if !traceContains(res.DecisionTrace, "Failed to send risk alert to endpoint") {
		t.Fatalf("trace: %v", res.DecisionTrace)
	}
}

func TestDocumentAgentExtractionFailureDefaults(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	agent := newDocumentAgent(stubExtractor{err: errors.New("not a pdf")}, dispatcher)

	res := agent.Analyze(context.Background(), []byte("garbage"))

	doc := res.Document
	if doc.InvoiceTotal != 0.0 || doc.RiskTriggered || len(doc.ComplianceMentions) != 0 {
		t.Fatalf("extraction failure must yield neutral findings, got %+v", doc)
	}
	if !traceContains(res.DecisionTrace, "Text extraction failed") {
		t.Fatalf("trace: %v", res.DecisionTrace)
	}
	if len(dispatcher.recorded()) != 0 {
		t.Fatal("no dispatch expected on neutral findings")
	}
}

func TestDocumentAgentDeterministic(t *testing.T) {
	agent := newDocumentAgent(stubExtractor{text: "HIPAA notice. Total: $20,000.00"}, &fakeDispatcher{})

	first := agent.Analyze(context.Background(), []byte("same"))
	second := agent.Analyze(context.Background(), []byte("same"))

	if !reflect.DeepEqual(first.Document, second.Document) {
		t.Fatalf("findings differ across identical inputs: %+v vs %+v", first.Document, second.Document)
	}
}
