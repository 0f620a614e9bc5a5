package mongodb

import (
	"context"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	pkgmongo "github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.CampusRepository = (*CampusRepository)(nil)

// CampusRepository handles the universities and residenceHalls collections
type CampusRepository struct {
	universities   *mongo.Collection
	residenceHalls *mongo.Collection
}

// NewCampusRepository creates a new CampusRepository
func NewCampusRepository(db *mongo.Database) *CampusRepository {
	return &CampusRepository{
		universities:   db.Collection(pkgmongo.CollectionUniversities),
		residenceHalls: db.Collection(pkgmongo.CollectionResidenceHalls),
	}
}

// UpsertUniversity creates the university or updates its name, keeping totals
func (r *CampusRepository) UpsertUniversity(ctx context.Context, u *models.University) error {
	update := bson.M{
		"$set": bson.M{"name": u.Name},
		"$setOnInsert": bson.M{
			"totalPoints":        0,
			"totalItemsRecycled": 0,
			"totalCO2Saved":      0.0,
			"createdAt":          time.Now(),
		},
	}
	_, err := r.universities.UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true))
	return err
}

// UpsertResidenceHall creates the hall or updates its name and university, keeping totals
func (r *CampusRepository) UpsertResidenceHall(ctx context.Context, h *models.ResidenceHall) error {
	update := bson.M{
		"$set": bson.M{"name": h.Name, "university": h.University},
		"$setOnInsert": bson.M{
			"totalPoints":        0,
			"totalItemsRecycled": 0,
			"createdAt":          time.Now(),
		},
	}
	_, err := r.residenceHalls.UpdateOne(ctx, bson.M{"_id": h.ID}, update, options.Update().SetUpsert(true))
	return err
}

// IncrementUniversity adds to a university's totals. A missing university is not an error.
func (r *CampusRepository) IncrementUniversity(ctx context.Context, id string, points, items int, co2 float64) error {
	update := bson.M{"$inc": bson.M{
		"totalPoints":        points,
		"totalItemsRecycled": items,
		"totalCO2Saved":      co2,
	}}
	_, err := r.universities.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// IncrementResidenceHall adds to a residence hall's totals. A missing hall is not an error.
func (r *CampusRepository) IncrementResidenceHall(ctx context.Context, id string, points, items int) error {
	update := bson.M{"$inc": bson.M{
		"totalPoints":        points,
		"totalItemsRecycled": items,
	}}
	_, err := r.residenceHalls.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// TopUniversities lists universities by total points, highest first
func (r *CampusRepository) TopUniversities(ctx context.Context, limit int) ([]*models.University, error) {
	opts := options.Find().SetSort(bson.D{{Key: "totalPoints", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.universities.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*models.University{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopResidenceHalls lists halls by total points, optionally within one university
func (r *CampusRepository) TopResidenceHalls(ctx context.Context, university string, limit int) ([]*models.ResidenceHall, error) {
	filter := bson.M{}
	if university != "" {
		filter["university"] = university
	}
	opts := options.Find().SetSort(bson.D{{Key: "totalPoints", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.residenceHalls.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*models.ResidenceHall{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
