package shared

import (
	"context"
	"net/http"

	"staffing/internal/domain/audit"
	"staffing/internal/requestctx"
)

type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// RecordAudit stamps the request ID and client IP on e and records it.
// Failures are logged; they never fail the request.
func RecordAudit(r *http.Request, auditor Auditor, actorID string, e audit.Entry) {
	if auditor == nil {
		return
	}
	e.ActorID = actorID
	e.RequestID = requestctx.GetRequestID(r.Context())
	e.IP = ClientIP(r)
	if err := auditor.Record(r.Context(), e); err != nil {
		requestctx.Logger(r.Context()).Warn("audit record failed", "action", e.Action, "entityType", e.EntityType, "entityId", e.EntityID, "err", err)
	}
}
