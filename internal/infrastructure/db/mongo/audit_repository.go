package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

const auditCollection = "session_audit"

// AuditRepository stores session lifecycle events (created, destroyed,
// invalidated) for operational forensics: every forced logout leaves a row
// naming the session and the reason the backend rejected it.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	SessionID string `bson:"session_id"`
	UID       string `bson:"uid,omitempty"`
	Email     string `bson:"email"`
	Event     string `bson:"event"`
	Reason    string `bson:"reason,omitempty"`
	At        int64  `bson:"at"`
}

// Record inserts one audit event.
func (r *AuditRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	doc := auditDoc{
		SessionID: event.SessionID,
		UID:       event.UID,
		Email:     event.Email,
		Event:     event.Event,
		Reason:    event.Reason,
		At:        event.At.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
