package ports

import (
	"context"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

// AuthEventRepository persists audit records.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuthEventSink accepts audit records without blocking the request path.
type AuthEventSink interface {
	Enqueue(event domain.AuthEvent)
}
