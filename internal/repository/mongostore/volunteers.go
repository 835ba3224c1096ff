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

type VolunteerRepository struct {
	collection *mongo.Collection
}

func (r *VolunteerRepository) Create(ctx context.Context, v *models.Volunteer) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, v)
	return translate(err)
}

func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*models.Volunteer, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *VolunteerRepository) FindByEmail(ctx context.Context, email string) (*models.Volunteer, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *VolunteerRepository) findOne(ctx context.Context, filter bson.M) (*models.Volunteer, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var v models.Volunteer
	if err := r.collection.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VolunteerRepository) ListVerified(ctx context.Context) ([]*models.Volunteer, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"is_verified": true}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Volunteer](ctx, cursor)
}

func (r *VolunteerRepository) UpdateLocation(ctx context.Context, id string, lat, lon float64, at time.Time) error {
	return r.update(ctx, id, bson.M{
		"latitude":            lat,
		"longitude":           lon,
		"location_updated_at": at,
	})
}

func (r *VolunteerRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.update(ctx, id, bson.M{"is_verified": verified})
}

func (r *VolunteerRepository) update(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
