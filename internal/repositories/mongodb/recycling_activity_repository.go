package mongodb

import (
	"context"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	pkgmongo "github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.RecyclingActivityRepository = (*RecyclingActivityRepository)(nil)

// RecyclingActivityRepository handles MongoDB operations for RecyclingActivity
type RecyclingActivityRepository struct {
	collection *mongo.Collection
}

// NewRecyclingActivityRepository creates a new RecyclingActivityRepository
func NewRecyclingActivityRepository(db *mongo.Database) *RecyclingActivityRepository {
	return &RecyclingActivityRepository{
		collection: db.Collection(pkgmongo.CollectionRecyclingActivities),
	}
}

// Create inserts an activity. Activities are never updated afterwards.
func (r *RecyclingActivityRepository) Create(ctx context.Context, activity *models.RecyclingActivity) error {
	activity.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

// Delete removes an activity; only used to undo a half-recorded event.
func (r *RecyclingActivityRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindByUserID lists a user's activities ordered by timestamp
func (r *RecyclingActivityRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID, limit int, ascending bool) ([]*models.RecyclingActivity, error) {
	order := -1
	if ascending {
		order = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: order}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	activities := []*models.RecyclingActivity{}
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
