package ports

import (
	"context"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// AuditRecorder persists session lifecycle events.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}
