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

var _ repositories.VoucherRepository = (*VoucherRepository)(nil)

// VoucherRepository handles MongoDB operations for Voucher
type VoucherRepository struct {
	collection *mongo.Collection
}

// NewVoucherRepository creates a new VoucherRepository
func NewVoucherRepository(db *mongo.Database) *VoucherRepository {
	return &VoucherRepository{
		collection: db.Collection(pkgmongo.CollectionVouchers),
	}
}

// Create inserts a voucher; the unique voucherCode index reports collisions
func (r *VoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	voucher.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, voucher)
	return translate(err)
}

// Delete removes a voucher; only used to undo a failed generation.
func (r *VoucherRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindByID finds a voucher by ID
func (r *VoucherRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&voucher); err != nil {
		return nil, translate(err)
	}
	return &voucher, nil
}

// FindByCode finds a voucher by its code
func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.collection.FindOne(ctx, bson.M{"voucherCode": code}).Decode(&voucher); err != nil {
		return nil, translate(err)
	}
	return &voucher, nil
}

// FindByUserID lists a user's vouchers, newest first
func (r *VoucherRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Voucher, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vouchers := []*models.Voucher{}
	if err = cursor.All(ctx, &vouchers); err != nil {
		return nil, err
	}
	return vouchers, nil
}

// MarkRedeemed flips an active, unexpired voucher to redeemed
func (r *VoucherRepository) MarkRedeemed(ctx context.Context, id primitive.ObjectID, redeemedBy string, now time.Time) error {
	filter := bson.M{
		"_id":       id,
		"status":    models.VoucherStatusActive,
		"expiresAt": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.VoucherStatusRedeemed,
		"redeemedAt": now,
		"redeemedBy": redeemedBy,
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrConditionNotMet
	}
	return nil
}
