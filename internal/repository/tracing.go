package repository

import (
	"context"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"

	"gorm.io/gorm"
)

// startSpan opens a repository span and starts the latency timer for method on table.
// The returned func ends both and records err on the span.
func startSpan(ctx context.Context, db *gorm.DB, method, table string) (context.Context, func(error)) {
	ctx, span := observability.NewTraceLayer(observability.Tracer, db.Dialector.Name()).
		TraceRepositoryMethod(ctx, method, table)
	done := observability.TrackQuery(method, table)
	return ctx, func(err error) {
		done()
		observability.RecordErrorInContext(ctx, err)
		span.End()
	}
}
