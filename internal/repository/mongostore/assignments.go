package mongostore

import (
	"context"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AssignmentRepository struct {
	collection *mongo.Collection
}

func (r *AssignmentRepository) CreateMany(ctx context.Context, entries []*models.ResponseAssignment) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translate(err)
}

func (r *AssignmentRepository) Find(ctx context.Context, alertID, volunteerID string) (*models.ResponseAssignment, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var entry models.ResponseAssignment
	err := r.collection.FindOne(ctx, bson.M{"alert_id": alertID, "volunteer_id": volunteerID}).Decode(&entry)
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (r *AssignmentRepository) ListByAlert(ctx context.Context, alertID string) ([]*models.ResponseAssignment, error) {
	return r.list(ctx, bson.M{"alert_id": alertID}, bson.D{{Key: "distance_km", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *AssignmentRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]*models.ResponseAssignment, error) {
	return r.list(ctx, bson.M{"volunteer_id": volunteerID}, bson.D{{Key: "assigned_at", Value: -1}, {Key: "_id", Value: -1}})
}

func (r *AssignmentRepository) list(ctx context.Context, filter bson.M, sort bson.D) ([]*models.ResponseAssignment, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.ResponseAssignment](ctx, cursor)
}

func (r *AssignmentRepository) Respond(ctx context.Context, alertID, volunteerID string, status models.ResponseStatus, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"alert_id":     alertID,
		"volunteer_id": volunteerID,
		"status":       models.ResponsePending,
	}
	update := bson.M{"$set": bson.M{"status": status, "responded_at": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AssignmentRepository) CountByStatus(ctx context.Context, alertID string, status models.ResponseStatus) (int, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"alert_id": alertID, "status": status})
	return int(n), err
}
