package services

import (
	"context"
	"log/slog"
	"time"

	"task-tracker/backend/internal/logging"
)

// observe emits the single operation event for a core call.
func observe(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	kind := KindOf(err)

	outcome := "ok"
	level := slog.LevelInfo
	switch kind {
	case KindNone:
	case KindCanceled:
		outcome = "canceled"
	case KindInternal, KindUnavailable:
		outcome = "error"
		level = slog.LevelError
		attrs = append(attrs, "error", err.Error())
	default:
		outcome = "rejected"
	}

	args := append([]any{
		"op", op,
		"outcome", outcome,
		"error_kind", string(kind),
		"duration_ms", time.Since(start).Milliseconds(),
	}, attrs...)

	logging.FromContext(ctx).Log(ctx, level, "operation", args...)
}
