package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apppipeline "intake-triage/internal/application/pipeline"
	"intake-triage/internal/domain/audit"
	"intake-triage/internal/domain/classify"
	"intake-triage/internal/domain/faults"
	"intake-triage/internal/domain/triage"
	"intake-triage/internal/middleware"
)

// ErrMalformedInput marks caller mistakes that map to 400 and produce no
// audit entry.
var ErrMalformedInput = errors.New("malformed input")

type Router struct {
	pipeline *apppipeline.Service
	auditSt  audit.Store
	faultsRp faults.Repository
}

func NewRouter(pipeline *apppipeline.Service, auditStore audit.Store, faultRepo faults.Repository) http.Handler {
	r := &Router{pipeline: pipeline, auditSt: auditStore, faultsRp: faultRepo}
	mux := chi.NewRouter()

	mux.Post("/process/email", r.wrap(r.handleProcessEmail))
	mux.Post("/process/json", r.wrap(r.handleProcessJSON))
	mux.Post("/process/pdf", r.wrap(r.handleProcessPDF))

	mux.Get("/memory", r.wrap(r.handleMemory))
	mux.Get("/memory/summary", r.wrap(r.handleMemorySummary))
	mux.Get("/faults", r.wrap(r.handleFaults))

	// Self-hosted action receivers; the dispatcher targets these by default
	mux.Post("/crm/escalate", receiver("CRM escalation triggered"))
	mux.Post("/risk_alert", receiver("Risk alert triggered"))
	mux.Post("/log", receiver("Alert logged"))

	mux.Get("/metrics", middleware.MetricsHandler)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, ErrMalformedInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// processResponse mirrors the per-run API shape: the inner classification
// triple plus the run-level flags, diagnostic, and both decision traces.
type processResponse struct {
	RunID          string                `json:"run_id"`
	Classification classificationView    `json:"classification"`
	AnomalyFlagged bool                  `json:"anomaly_flagged"`
	RiskTriggered  bool                  `json:"risk_triggered"`
	RawResponse    string                `json:"raw_response"`
	AgentData      triage.AgentResult    `json:"agent_data"`
	Actions        triage.RoutingOutcome `json:"actions"`
}

type classificationView struct {
	Format classify.Format `json:"format"`
	Intent classify.Intent `json:"intent"`
	Tone   classify.Tone   `json:"tone"`
}

func toResponse(res *triage.PipelineResult) processResponse {
	return processResponse{
		RunID: res.RunID,
		Classification: classificationView{
			Format: res.Classification.Format,
			Intent: res.Classification.Intent,
			Tone:   res.Classification.Tone,
		},
		AnomalyFlagged: res.Classification.AnomalyFlagged,
		RiskTriggered:  res.Classification.RiskTriggered,
		RawResponse:    res.Classification.Diagnostic,
		AgentData:      res.AgentData,
		Actions:        res.Actions,
	}
}

// POST /process/email
// Body: {"content": "<raw email text>"}
func (r *Router) handleProcessEmail(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	return r.run(w, req, triage.SourceEmailUpload, apppipeline.Input{EmailText: body.Content})
}

// POST /process/json
// Body: one JSON object; any other top-level value is rejected before the
// pipeline runs, so no audit entry is written.
func (r *Router) handleProcessJSON(w http.ResponseWriter, req *http.Request) error {
	raw, err := io.ReadAll(io.LimitReader(req.Body, middleware.MaxUploadBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return fmt.Errorf("%w: top-level JSON object required", ErrMalformedInput)
	}

	return r.run(w, req, triage.SourceJSONWebhook, apppipeline.Input{Record: payload})
}

// POST /process/pdf
// Multipart upload, file field "file".
func (r *Router) handleProcessPDF(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file field required", ErrMalformedInput)
	}
	defer file.Close()

	if err := middleware.ValidateFilename(header.Filename); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	content, err := io.ReadAll(io.LimitReader(file, middleware.MaxUploadBytes))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	return r.run(w, req, triage.SourcePDFUpload, apppipeline.Input{
		Document: content,
		Filename: header.Filename,
	})
}

func (r *Router) run(w http.ResponseWriter, req *http.Request, source triage.SourceKind, in apppipeline.Input) error {
	middleware.IncrementRuns()

	res, err := r.pipeline.Run(req.Context(), source, in)
	if err != nil {
		middleware.IncrementRunsFailed()
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(toResponse(res))
}

// memoryEntry is an audit entry with the JSON blobs re-inflated to nested
// structures for API consumers.
type memoryEntry struct {
	ID             int64           `json:"id"`
	RunID          string          `json:"run_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Source         string          `json:"source"`
	Classification json.RawMessage `json:"classification"`
	AgentData      json.RawMessage `json:"agent_data"`
	Actions        json.RawMessage `json:"actions"`
	ArtifactURL    string          `json:"artifact_url,omitempty"`
}

func toMemoryEntry(e *audit.Entry) memoryEntry {
	return memoryEntry{
		ID:             e.ID,
		RunID:          e.RunID,
		Timestamp:      e.Timestamp,
		Source:         e.Source,
		Classification: rawOrQuoted(e.Classification),
		AgentData:      rawOrQuoted(e.AgentData),
		Actions:        rawOrQuoted(e.Actions),
		ArtifactURL:    e.ArtifactURL,
	}
}

// rawOrQuoted passes stored JSON through untouched and quotes anything
// that is somehow not valid JSON rather than corrupting the response.
func rawOrQuoted(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return json.RawMessage(quoted)
}

// GET /memory[?page=&page_size=]
func (r *Router) handleMemory(w http.ResponseWriter, req *http.Request) error {
	var entries []*audit.Entry
	var err error

	if pageStr := req.URL.Query().Get("page"); pageStr != "" {
		page, _ := strconv.Atoi(pageStr)
		size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
		entries, err = r.auditSt.Paginate(req.Context(), page, middleware.ValidatePageSize(size))
	} else {
		entries, err = r.auditSt.ListAll(req.Context())
	}
	if err != nil {
		return err
	}

	out := make([]memoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toMemoryEntry(e))
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(out)
}

// GET /memory/summary?days=7
func (r *Router) handleMemorySummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	summary, err := r.auditSt.Summary(req.Context(), middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

// GET /faults?limit=20
func (r *Router) handleFaults(w http.ResponseWriter, req *http.Request) error {
	if r.faultsRp == nil {
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode([]any{})
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.faultsRp.ListRecent(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// receiver builds a default action receiver that logs the payload and
// acknowledges.
func receiver(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var payload any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil && err != io.EOF {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("%s: %v", status, payload)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
