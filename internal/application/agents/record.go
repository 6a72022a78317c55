package agents

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"intake-triage/internal/application"
	"intake-triage/internal/domain/actions"
	"intake-triage/internal/domain/triage"
)

// requiredFields checked directly so the trace names exactly what is
// missing. Type constraints are enforced by the compiled schema below.
var requiredFields = []string{"event_id", "timestamp", "user_id"}

const recordSchema = `{
  "type": "object",
  "properties": {
    "event_id": {"type": "string"},
    "timestamp": {"type": "string"},
    "user_id": {"type": "string"},
    "amount": {"type": "number"}
  }
}`

// RecordAgent validates structured-record payloads against the expected
// shape. Invalid records are flagged as anomalies and an alert is handed
// to the background dispatch pool, fire-and-forget.
type RecordAgent struct {
	Dispatcher actions.Dispatcher
	Clock      application.Clock
	schema     *jsonschema.Schema
}

func NewRecordAgent(dispatcher actions.Dispatcher, clock application.Clock) (*RecordAgent, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(recordSchema))
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &RecordAgent{Dispatcher: dispatcher, Clock: clock, schema: schema}, nil
}

func (a *RecordAgent) Analyze(payload map[string]any) triage.AgentResult {
	trace := []string{}
	status := triage.SchemaValid
	flagged := false

	for _, field := range requiredFields {
		if _, ok := payload[field]; !ok {
			status = triage.SchemaInvalid
			flagged = true
			trace = append(trace, fmt.Sprintf("missing required field: %s", field))
		}
	}

	if violations := a.typeViolations(payload); len(violations) > 0 {
		status = triage.SchemaInvalid
		flagged = true
		trace = append(trace, violations...)
	}

	if flagged {
		trace = append(trace, "Schema invalid, anomaly flagged, alert dispatched in background")
		a.Dispatcher.DispatchAsync(actions.KindLogAlert, map[string]any{
			"error": trace,
			"data":  payload,
		})
	} else {
		trace = append(trace, "All required fields present, schema valid")
	}

	return triage.AgentResult{
		Agent:         "json_agent",
		ProducedAt:    a.Clock.Now().UTC(),
		DecisionTrace: trace,
		Record: &triage.RecordFindings{
			SchemaStatus:   status,
			AnomalyFlagged: flagged,
			Payload:        payload,
		},
	}
}

func (a *RecordAgent) typeViolations(payload map[string]any) []string {
	data, err := json.Marshal(payload)
	if err != nil {
		return []string{fmt.Sprintf("payload not serializable: %v", err)}
	}
	result := a.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	var out []string
	for keyword, evalErr := range result.Errors {
		out = append(out, fmt.Sprintf("schema violation (%s): %v", keyword, evalErr))
	}
	return out
}
