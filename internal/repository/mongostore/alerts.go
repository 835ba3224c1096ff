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

type AlertRepository struct {
	collection *mongo.Collection
}

func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, alert)
	return translate(err)
}

func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AlertRepository) FindActiveByReporter(ctx context.Context, reporterID string) (*models.Alert, error) {
	return r.findOne(ctx, bson.M{"reporter_id": reporterID, "status": models.AlertActive})
}

func (r *AlertRepository) findOne(ctx context.Context, filter bson.M) (*models.Alert, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var alert models.Alert
	if err := r.collection.FindOne(ctx, filter).Decode(&alert); err != nil {
		return nil, translate(err)
	}
	return &alert, nil
}

func (r *AlertRepository) List(ctx context.Context, f models.AlertFilter) ([]*models.Alert, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.ReporterID != "" {
		filter["reporter_id"] = f.ReporterID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Alert](ctx, cursor)
}

func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":      models.AlertResolved,
		"resolved_at": at,
		"updated_at":  at,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": models.AlertActive}, update)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) Touch(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"updated_at": at}})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
