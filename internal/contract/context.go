package contract

import "context"

type contextKey string

const batchIDKey contextKey = "batchID"

// WithBatchID labels the batch a store call belongs to, for failure reporting.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFrom returns the batch label set by WithBatchID, or "-" when absent.
func BatchIDFrom(ctx context.Context) string {
	id, ok := ctx.Value(batchIDKey).(string)
	if !ok || id == "" {
		return "-"
	}
	return id
}
