package classify

import "context"

// Classifier is the external text-classification capability. Implementations
// may fail or time out; callers substitute Default on any error.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)

	// DetectTone answers a dedicated tone query constrained to the closed
	// vocabulary {polite, angry, escalated, neutral, threatening}.
	DetectTone(ctx context.Context, text string) (Tone, error)
}
