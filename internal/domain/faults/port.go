package faults

import "context"

// Repository defines persistence for pipeline faults
type Repository interface {
	Save(ctx context.Context, f *Fault) error
	ListRecent(ctx context.Context, limit int) ([]*Fault, error)
}
