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

type ReportRepository struct {
	collection *mongo.Collection
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, report)
	return translate(err)
}

func (r *ReportRepository) List(ctx context.Context) ([]*models.Report, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Report](ctx, cursor)
}

type LocationRepository struct {
	collection *mongo.Collection
}

func (r *LocationRepository) Append(ctx context.Context, sample *models.LiveLocation) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, sample)
	return translate(err)
}

func (r *LocationRepository) ListByAlert(ctx context.Context, alertID string) ([]*models.LiveLocation, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"alert_id": alertID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.LiveLocation](ctx, cursor)
}

func (r *LocationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"recorded_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
