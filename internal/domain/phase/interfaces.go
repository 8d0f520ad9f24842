package phase

import "context"

// Repository provides durable storage for phase times. Every mutating call
// must be flushed to stable storage before it returns.
type Repository interface {
	Get(ctx context.Context, p Phase) (*Times, error)
	List(ctx context.Context) ([]Times, error)
	SetPlan(ctx context.Context, p Phase, seconds int64) error
	// Increment adds one second to the actual or interruption counter and
	// returns the updated row.
	Increment(ctx context.Context, p Phase, interruption bool) (*Times, error)
	AddComment(ctx context.Context, p Phase, c Comment) error
}
