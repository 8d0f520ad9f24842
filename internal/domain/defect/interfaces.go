package defect

import "context"

// Repository provides durable storage for defects. Every mutating call must
// be flushed to stable storage before it returns.
type Repository interface {
	Create(ctx context.Context, d *Defect) error
	Get(ctx context.Context, id string) (*Defect, error)
	Update(ctx context.Context, d *Defect) error
	// AddFixTime adds seconds to an unchecked defect and returns the row.
	AddFixTime(ctx context.Context, id string, seconds int64) (*Defect, error)
	List(ctx context.Context) ([]Defect, error)
	Count(ctx context.Context) (int, error)
}

// EventLogger appends to the chronological event log.
type EventLogger interface {
	Log(ctx context.Context, name, uuid, comment string) error
}
