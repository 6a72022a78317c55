package audit

import "time"

// Entry is one immutable record of a completed pipeline run. The
// classification, agent_data and actions fields are serialized JSON text;
// the store never interprets them.
type Entry struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	Timestamp      time.Time `json:"timestamp"`
	Source         string    `json:"source"`
	Classification string    `json:"classification"`
	AgentData      string    `json:"agent_data"`
	Actions        string    `json:"actions"`
	ArtifactURL    string    `json:"artifact_url,omitempty"`
}
