package audit

import "context"

// SourceSummary aggregates entries per ingestion channel over a window
type SourceSummary struct {
	Source string `json:"source"`
	Total  int    `json:"total"`
}

// Store is the persistence port for audit entries. Append must be durable
// before it returns: ListAll immediately after Append includes the new
// entry. IDs are assigned by the store and monotonically increasing.
type Store interface {
	Append(ctx context.Context, e *Entry) (int64, error)
	ListAll(ctx context.Context) ([]*Entry, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Entry, error)
	Summary(ctx context.Context, sinceDays int) ([]SourceSummary, error)
}
