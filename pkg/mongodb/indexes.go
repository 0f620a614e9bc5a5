package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CollectionUsers               = "users"
	CollectionRecyclingActivities = "recyclingActivities"
	CollectionVoucherTemplates    = "voucherTemplates"
	CollectionVouchers            = "vouchers"
	CollectionTransactions        = "transactions"
	CollectionUniversities        = "universities"
	CollectionResidenceHalls      = "residenceHalls"
	CollectionScanClaims          = "scanClaims"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// indexes back the duplicate-key handling in the user and voucher repositories.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "pointsBalance", Value: -1}}},
			{Keys: bson.D{{Key: "university", Value: 1}, {Key: "pointsBalance", Value: -1}}},
		},
		CollectionRecyclingActivities: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		CollectionVouchers: {
			{Keys: bson.D{{Key: "voucherCode", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "generatedAt", Value: -1}}},
		},
		CollectionVoucherTemplates: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "pointsCost", Value: 1}}},
		},
		CollectionTransactions: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		CollectionScanClaims: {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		CollectionResidenceHalls: {
			{Keys: bson.D{{Key: "university", Value: 1}, {Key: "totalPoints", Value: -1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
