package actionrouter

import (
	"context"
	"fmt"
	"strings"

	"intake-triage/internal/application"
	"intake-triage/internal/domain/actions"
	"intake-triage/internal/domain/classify"
	"intake-triage/internal/domain/triage"
)

var escalatingTones = map[classify.Tone]bool{
	classify.ToneAngry:       true,
	classify.ToneThreatening: true,
	classify.ToneEscalated:   true,
}

// Router applies the fixed per-format rule table to an analyzer result and
// dispatches the matching action. Routing always returns an outcome, never
// an error: dispatch failures become error:<message> tokens.
type Router struct {
	Dispatcher actions.Dispatcher
	Clock      application.Clock
}

func NewRouter(dispatcher actions.Dispatcher, clock application.Clock) *Router {
	return &Router{Dispatcher: dispatcher, Clock: clock}
}

// Route branches on the classification's reported format, lower-cased and
// trimmed. The format is advisory here; analyzer selection happened by
// ingestion channel upstream.
func (r *Router) Route(ctx context.Context, agentData triage.AgentResult, verdict classify.Verdict) triage.RoutingOutcome {
	triggered := []string{}
	trace := []string{}

	format := strings.ToLower(strings.TrimSpace(string(verdict.Format)))
	switch format {
	case "email":
		if agentData.Email != nil && escalatingTones[agentData.Email.Tone] {
			trace = append(trace, fmt.Sprintf("Email tone %s requires escalation", agentData.Email.Tone))
			triggered = r.dispatch(ctx, actions.KindEscalate, agentData, triggered, &trace)
		} else {
			trace = append(trace, "Email tone acceptable, no action needed")
		}

	case "json":
		if agentData.Record != nil && agentData.Record.AnomalyFlagged {
			trace = append(trace, "Record anomaly flagged, sending log alert")
			payload := r.anomalyPayload(agentData)
			triggered = r.dispatch(ctx, actions.KindLogAlert, payload, triggered, &trace)
		} else {
			trace = append(trace, "Record within schema, no action needed")
		}

	case "pdf":
		if agentData.Document != nil && agentData.Document.RiskTriggered {
			trace = append(trace, "Document risk triggered, sending risk alert")
			triggered = r.dispatch(ctx, actions.KindRiskAlert, agentData, triggered, &trace)
		} else {
			trace = append(trace, "Document below risk thresholds, no action needed")
		}

	default:
		trace = append(trace, fmt.Sprintf("Unrecognized format %q, no action taken", format))
	}

	return triage.RoutingOutcome{
		Agent:            "action_router",
		ProducedAt:       r.Clock.Now().UTC(),
		ActionsTriggered: triggered,
		DecisionTrace:    trace,
	}
}

func (r *Router) dispatch(ctx context.Context, kind actions.Kind, payload any, triggered []string, trace *[]string) []string {
	if err := r.Dispatcher.Dispatch(ctx, kind, payload); err != nil {
		*trace = append(*trace, fmt.Sprintf("Dispatch of %s failed: %v", kind, err))
		return append(triggered, fmt.Sprintf("error:%v", err))
	}
	*trace = append(*trace, fmt.Sprintf("Dispatched %s", kind))
	return append(triggered, string(kind))
}

// anomalyPayload wraps the original payload when present so the receiver
// sees the anomaly flag alongside the offending record; otherwise the raw
// analyzer result is sent.
func (r *Router) anomalyPayload(agentData triage.AgentResult) any {
	if agentData.Record != nil && agentData.Record.Payload != nil {
		return map[string]any{
			"anomaly": true,
			"details": agentData.DecisionTrace,
			"payload": agentData.Record.Payload,
		}
	}
	return agentData
}
