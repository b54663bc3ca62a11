package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotification is a message that could not be delivered.
type FailedNotification struct {
	Target   string
	Payload  map[string]any
	Error    string
	Attempts int
}

// FailedNotificationRepository keeps undelivered messages for a later retry.
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// Save stores n with status pending.
func (r *FailedNotificationRepository) Save(ctx context.Context, n FailedNotification) error {
	now := time.Now().UTC()
	doc := failedNotificationDocument{
		Target:      n.Target,
		Payload:     n.Payload,
		Error:       n.Error,
		Attempts:    n.Attempts,
		Status:      "pending",
		CreatedAt:   now,
		LastTriedAt: now,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
