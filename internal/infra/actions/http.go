package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"intake-triage/internal/domain/actions"
)

// Endpoints maps each action kind to its receiver URL
type Endpoints struct {
	Escalate  string
	RiskAlert string
	Log       string
}

// HTTPDispatcher posts JSON payloads to the configured receivers. Each
// dispatch is one attempt with a bounded timeout; there is no retry.
type HTTPDispatcher struct {
	endpoints Endpoints
	client    *http.Client
	timeout   time.Duration
	pool      *semaphore.Weighted
}

func NewHTTPDispatcher(endpoints Endpoints, timeout time.Duration, asyncWorkers int64) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if asyncWorkers <= 0 {
		asyncWorkers = 4
	}
	return &HTTPDispatcher{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		pool:      semaphore.NewWeighted(asyncWorkers),
	}
}

func (d *HTTPDispatcher) url(kind actions.Kind) (string, error) {
	switch kind {
	case actions.KindEscalate:
		return d.endpoints.Escalate, nil
	case actions.KindRiskAlert:
		return d.endpoints.RiskAlert, nil
	case actions.KindLogAlert:
		return d.endpoints.Log, nil
	default:
		return "", fmt.Errorf("unknown action kind: %s", kind)
	}
}

// Dispatch posts the payload to the receiver for kind. Connection failures,
// timeouts and non-2xx statuses are returned as errors; callers decide
// whether that is logged-only or escalated further.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, kind actions.Kind, payload any) error {
	target, err := d.url(kind)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch %s: receiver returned %d", kind, resp.StatusCode)
	}
	return nil
}

// DispatchAsync runs the dispatch on a bounded background pool and discards
// the outcome. When the pool is saturated the attempt is dropped; the
// caller never observes either way.
func (d *HTTPDispatcher) DispatchAsync(kind actions.Kind, payload any) {
	if !d.pool.TryAcquire(1) {
		log.Printf("async dispatch pool full, dropping %s", kind)
		return
	}
	go func() {
		defer d.pool.Release(1)
		if err := d.Dispatch(context.Background(), kind, payload); err != nil {
			log.Printf("async dispatch %s failed: %v", kind, err)
		}
	}()
}
