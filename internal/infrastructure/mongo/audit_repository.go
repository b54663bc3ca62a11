package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
)

// AuditRepository stores reviewer actions.
type AuditRepository struct {
	collection *mongo.Collection
}

var (
	_ adminapp.AuditLog     = (*AuditRepository)(nil)
	_ adminapp.AuditHistory = (*AuditRepository)(nil)
)

func NewAuditRepository(db *mongo.Database, collectionName string) *AuditRepository {
	return &AuditRepository{collection: db.Collection(collectionName)}
}

// Record appends entry.
func (r *AuditRepository) Record(ctx context.Context, entry adminapp.AuditEntry) error {
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	doc := auditDocument{
		ActorID:    entry.ActorID,
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		Table:      entry.Table,
		TargetID:   entry.TargetID,
		Notes:      entry.Notes,
		At:         at,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

// Recent returns the latest entries for a target, newest first.
func (r *AuditRepository) Recent(ctx context.Context, table, targetID string, limit int64) ([]adminapp.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{"table": table, "targetId": targetID}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []auditDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	entries := make([]adminapp.AuditEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, adminapp.AuditEntry{
			ActorID:    d.ActorID,
			ActorEmail: d.ActorEmail,
			Action:     d.Action,
			Table:      d.Table,
			TargetID:   d.TargetID,
			Notes:      d.Notes,
			At:         d.At,
		})
	}
	return entries, nil
}

// EnsureIndexes creates the (table, targetId, at) index Recent relies on.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "table", Value: 1}, {Key: "targetId", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}
