package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type auditDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ActorID    string             `bson:"actorId"`
	ActorEmail string             `bson:"actorEmail,omitempty"`
	Action     string             `bson:"action"`
	Table      string             `bson:"table"`
	TargetID   string             `bson:"targetId,omitempty"`
	Notes      *string            `bson:"notes,omitempty"`
	At         time.Time          `bson:"at"`
}

type failedNotificationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Target      string             `bson:"target"`
	Payload     map[string]any     `bson:"payload"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastTriedAt time.Time          `bson:"lastTriedAt"`
}
