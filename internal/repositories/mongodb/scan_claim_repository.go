package mongodb

import (
	"context"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	pkgmongo "github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.ScanClaimRepository = (*ScanClaimRepository)(nil)

// ScanClaimRepository stores one document per scanned code, keyed by the code.
// A TTL index on expiresAt removes stale claims.
type ScanClaimRepository struct {
	collection *mongo.Collection
}

// NewScanClaimRepository creates a new ScanClaimRepository
func NewScanClaimRepository(db *mongo.Database) *ScanClaimRepository {
	return &ScanClaimRepository{
		collection: db.Collection(pkgmongo.CollectionScanClaims),
	}
}

// Claim upserts the claim only if the existing one (if any) is older than
// window. When a live claim exists the filter misses, the upsert attempts an
// insert with the same _id and the unique _id index rejects it.
func (r *ScanClaimRepository) Claim(ctx context.Context, code string, now time.Time, window time.Duration) (bool, error) {
	filter := bson.M{
		"_id":       code,
		"claimedAt": bson.M{"$lte": now.Add(-window)},
	}
	update := bson.M{"$set": bson.M{
		"claimedAt": now,
		"expiresAt": now.Add(window),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err == nil {
		return true, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	return false, err
}

// Release deletes the claim made at claimedAt.
func (r *ScanClaimRepository) Release(ctx context.Context, code string, claimedAt time.Time) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": code, "claimedAt": claimedAt})
	return err
}
