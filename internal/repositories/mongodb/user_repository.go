package mongodb

import (
	"context"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	pkgmongo "github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles MongoDB operations for User
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(pkgmongo.CollectionUsers),
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, user)
	return translate(err)
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateLastLogin stamps the user's last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ApplyIncrements atomically increments the user's counters, guarded by the
// stored balance when minBalance is positive.
func (r *UserRepository) ApplyIncrements(ctx context.Context, id primitive.ObjectID, inc repositories.UserIncrements, minBalance int) (*models.User, error) {
	filter := bson.M{"_id": id}
	if minBalance > 0 {
		filter["pointsBalance"] = bson.M{"$gte": minBalance}
	}

	now := time.Now()
	set := bson.M{"updatedAt": now}
	if !inc.ActivityAt.IsZero() {
		set["lastActivityDate"] = inc.ActivityAt
	}
	update := bson.M{
		"$inc": bson.M{
			"pointsBalance":      inc.PointsBalance,
			"totalPointsEarned":  inc.TotalPointsEarned,
			"totalPointsSpent":   inc.TotalPointsSpent,
			"totalItemsRecycled": inc.TotalItemsRecycled,
			"totalCO2Saved":      inc.TotalCO2Saved,
		},
		"$set": set,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}
	if minBalance <= 0 {
		return nil, repositories.ErrNotFound
	}

	// Either the user is missing or the balance guard rejected the update.
	count, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if cerr != nil {
		return nil, cerr
	}
	if count == 0 {
		return nil, repositories.ErrNotFound
	}
	return nil, repositories.ErrConditionNotMet
}

// FindTop returns users ordered by points balance, highest first
func (r *UserRepository) FindTop(ctx context.Context, f repositories.LeaderboardFilter) ([]*models.User, error) {
	filter := bson.M{}
	if f.University != "" {
		filter["university"] = f.University
	}
	if !f.ActiveSince.IsZero() {
		filter["lastActivityDate"] = bson.M{"$gte": f.ActiveSince}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "pointsBalance", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountWithBalanceAbove counts users whose balance is strictly greater than balance
func (r *UserRepository) CountWithBalanceAbove(ctx context.Context, balance int, university string) (int64, error) {
	filter := bson.M{"pointsBalance": bson.M{"$gt": balance}}
	if university != "" {
		filter["university"] = university
	}
	return r.collection.CountDocuments(ctx, filter)
}
