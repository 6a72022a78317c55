package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"intake-triage/internal/application"
	"intake-triage/internal/application/actionrouter"
	"intake-triage/internal/application/agents"
	"intake-triage/internal/domain/audit"
	"intake-triage/internal/domain/classify"
	"intake-triage/internal/domain/faults"
	"intake-triage/internal/domain/triage"
)

// ArchiveStore persists raw uploaded bytes off the hot path. Optional.
type ArchiveStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Publisher streams appended audit entries to an event bus. Optional.
type Publisher interface {
	PublishEntry(ctx context.Context, e *audit.Entry) error
}

// Input carries the raw payload of one ingestion channel. Exactly one of
// EmailText / Record / Document is meaningful, selected by SourceKind.
type Input struct {
	EmailText string
	Record    map[string]any
	Document  []byte
	Filename  string
}

// Service sequences one pipeline run: classify, analyze by channel, route,
// audit. It performs no business logic beyond sequencing and default
// substitution; analyzers and the router own their decisions.
type Service struct {
	Classifier classify.Classifier
	Email      *agents.EmailAgent
	Record     *agents.RecordAgent
	Document   *agents.DocumentAgent
	Router     *actionrouter.Router
	Audit      audit.Store
	Faults     faults.Repository // optional
	Archive    ArchiveStore      // optional
	Events     Publisher         // optional
	Clock      application.Clock

	ClassifyTimeout time.Duration
}

// Run executes the pipeline for a single input. Only an audit append
// failure is fatal; every other degradation is absorbed into the result's
// traces.
func (s *Service) Run(ctx context.Context, source triage.SourceKind, in Input) (*triage.PipelineResult, error) {
	runID := uuid.New().String()

	verdict := s.classify(ctx, runID, source, in)

	var agentData triage.AgentResult
	switch source {
	case triage.SourceEmailUpload:
		agentData = s.Email.Analyze(ctx, in.EmailText)
	case triage.SourceJSONWebhook:
		agentData = s.Record.Analyze(in.Record)
	case triage.SourcePDFUpload:
		agentData = s.Document.Analyze(ctx, in.Document)
	default:
		return nil, fmt.Errorf("unknown source kind: %s", source)
	}

	routed := s.Router.Route(ctx, agentData, verdict)
	for _, token := range routed.ActionsTriggered {
		if msg, ok := strings.CutPrefix(token, "error:"); ok {
			s.recordFault(runID, "dispatch", msg, "")
		}
	}

	artifactURL := s.archive(ctx, runID, source, in)

	entry, err := s.appendAudit(ctx, runID, source, verdict, agentData, routed, artifactURL)
	if err != nil {
		return nil, fmt.Errorf("audit append: %w", err)
	}

	s.publish(ctx, runID, entry)

	return &triage.PipelineResult{
		RunID:          runID,
		Classification: verdict,
		AgentData:      agentData,
		Actions:        routed,
	}, nil
}

// classify invokes the port with a format-appropriate textual projection.
// Failure is never fatal: the default verdict for the channel is
// substituted and the fault journaled.
func (s *Service) classify(ctx context.Context, runID string, source triage.SourceKind, in Input) classify.Verdict {
	projection := s.projection(source, in)

	cctx := ctx
	if s.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.ClassifyTimeout)
		defer cancel()
	}

	verdict, err := s.Classifier.Classify(cctx, projection)
	if err == nil {
		return verdict.Normalize()
	}

	diagnostic := verdict.Diagnostic
	if diagnostic == "" {
		diagnostic = err.Error()
	}
	log.Printf("classifier unavailable for run=%s source=%s: %v", runID, source, err)
	s.recordFault(runID, "classify", err.Error(), diagnostic)
	return classify.Default(source.InferredFormat(), diagnostic)
}

func (s *Service) projection(source triage.SourceKind, in Input) string {
	switch source {
	case triage.SourceJSONWebhook:
		b, err := json.Marshal(in.Record)
		if err != nil {
			return fmt.Sprintf("%v", in.Record)
		}
		return string(b)
	case triage.SourcePDFUpload:
		return in.Filename
	default:
		return in.EmailText
	}
}

// archive stores document bytes in the intake archive when configured.
// Best-effort: a failed upload is journaled and the run continues.
func (s *Service) archive(ctx context.Context, runID string, source triage.SourceKind, in Input) string {
	if s.Archive == nil || source != triage.SourcePDFUpload || len(in.Document) == 0 {
		return ""
	}
	name := in.Filename
	if name == "" {
		name = "document.pdf"
	}
	key := fmt.Sprintf("intake/%s/%s/%s", source, runID, name)
	url, err := s.Archive.Put(ctx, key, in.Document, "application/pdf")
	if err != nil {
		log.Printf("archive upload failed for run=%s: %v", runID, err)
		s.recordFault(runID, "archive", err.Error(), "")
		return ""
	}
	return url
}

func (s *Service) appendAudit(ctx context.Context, runID string, source triage.SourceKind, verdict classify.Verdict, agentData triage.AgentResult, routed triage.RoutingOutcome, artifactURL string) (*audit.Entry, error) {
	classification, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("marshal classification: %w", err)
	}
	agentBlob, err := json.Marshal(agentData)
	if err != nil {
		return nil, fmt.Errorf("marshal agent data: %w", err)
	}
	actionsBlob, err := json.Marshal(routed)
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}

	entry := &audit.Entry{
		RunID:          runID,
		Timestamp:      s.Clock.Now().UTC(),
		Source:         string(source),
		Classification: string(classification),
		AgentData:      string(agentBlob),
		Actions:        string(actionsBlob),
		ArtifactURL:    artifactURL,
	}

	id, err := s.Audit.Append(ctx, entry)
	if err != nil {
		s.recordFault(runID, "audit", err.Error(), "")
		return nil, err
	}
	entry.ID = id
	return entry, nil
}

func (s *Service) publish(ctx context.Context, runID string, entry *audit.Entry) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEntry(ctx, entry); err != nil {
		log.Printf("audit event publish failed for run=%s: %v", runID, err)
		s.recordFault(runID, "publish", err.Error(), "")
	}
}

// recordFault journals a degraded step, best-effort with its own deadline.
func (s *Service) recordFault(runID, stage, message, details string) {
	if s.Faults == nil {
		return
	}
	var detailsJSON string
	if details != "" {
		b, _ := json.Marshal(map[string]string{"raw": details})
		detailsJSON = string(b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Faults.Save(ctx, &faults.Fault{
		RunID:       runID,
		Stage:       stage,
		Message:     message,
		DetailsJSON: detailsJSON,
		CreatedAt:   s.Clock.Now().UTC(),
	}); err != nil {
		log.Printf("fault journal write failed for run=%s stage=%s: %v", runID, stage, err)
	}
}
