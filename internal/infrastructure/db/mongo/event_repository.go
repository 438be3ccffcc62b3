package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
	"github.com/maintenance-app/maintenance-api/internal/core/ports"
)

const authEventsCollection = "auth_events"

// EventRepository implements ports.AuthEventRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.AuthEventRepository {
	return &EventRepository{db: db}
}

// InsertEvent persists an audit record to the auth_events collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	doc := bson.M{
		"type":        string(event.Type),
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
	}
	if event.Email != "" {
		doc["email"] = event.Email
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}

	_, err := r.db.Collection(authEventsCollection).InsertOne(ctx, doc)
	return err
}
