package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func updated(matched int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: matched}, bson.E{Key: "nModified", Value: matched})
}

func TestScanClaimRepository_Claim(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mt.Run("first claim", func(mt *mtest.T) {
		repo := NewScanClaimRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "SCAN-1"}}}},
		))
		ok, err := repo.Claim(context.Background(), "SCAN-1", now, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	mt.Run("live claim", func(mt *mtest.T) {
		repo := NewScanClaimRepository(mt.DB)
		mt.AddMockResponses(duplicateKey())
		ok, err := repo.Claim(context.Background(), "SCAN-1", now, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewScanClaimRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Message: "shutdown in progress"}))
		_, err := repo.Claim(context.Background(), "SCAN-1", now, time.Minute)
		assert.Error(t, err)
	})
}

func TestVoucherRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mt.Run("create reports code collisions", func(mt *mtest.T) {
		repo := NewVoucherRepository(mt.DB)
		mt.AddMockResponses(duplicateKey())
		err := repo.Create(context.Background(), &models.Voucher{VoucherCode: "ABCDEFGHIJKL"})
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	})

	mt.Run("mark redeemed", func(mt *mtest.T) {
		repo := NewVoucherRepository(mt.DB)
		mt.AddMockResponses(updated(1))
		require.NoError(t, repo.MarkRedeemed(context.Background(), primitive.NewObjectID(), "vendor-1", now))
	})

	mt.Run("mark redeemed misses", func(mt *mtest.T) {
		repo := NewVoucherRepository(mt.DB)
		mt.AddMockResponses(updated(0))
		err := repo.MarkRedeemed(context.Background(), primitive.NewObjectID(), "vendor-1", now)
		assert.ErrorIs(t, err, repositories.ErrConditionNotMet)
	})

	mt.Run("find by code", func(mt *mtest.T) {
		repo := NewVoucherRepository(mt.DB)
		id := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "voucherCode", Value: "ABCDEFGHIJKL"},
			{Key: "status", Value: "active"},
			{Key: "pointsCost", Value: 50},
		}))
		v, err := repo.FindByCode(context.Background(), "ABCDEFGHIJKL")
		require.NoError(t, err)
		assert.Equal(t, id, v.ID)
		assert.Equal(t, models.VoucherStatusActive, v.Status)
		assert.Equal(t, 50, v.PointsCost)
	})

	mt.Run("find by code misses", func(mt *mtest.T) {
		repo := NewVoucherRepository(mt.DB)
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := repo.FindByCode(context.Background(), "NOPE")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestVoucherTemplateRepository_DecrementInventory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("in stock", func(mt *mtest.T) {
		repo := NewVoucherTemplateRepository(mt.DB)
		mt.AddMockResponses(updated(1))
		require.NoError(t, repo.DecrementInventory(context.Background(), primitive.NewObjectID()))
	})

	mt.Run("sold out", func(mt *mtest.T) {
		repo := NewVoucherTemplateRepository(mt.DB)
		mt.AddMockResponses(updated(0))
		err := repo.DecrementInventory(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(t, err, repositories.ErrConditionNotMet)
	})
}

func TestUserRepository_ApplyIncrements(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	id := primitive.NewObjectID()

	mt.Run("applied", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "pointsBalance", Value: 7},
			{Key: "totalPointsEarned", Value: 7},
		}}))
		u, err := repo.ApplyIncrements(context.Background(), id, repositories.UserIncrements{PointsBalance: 7, TotalPointsEarned: 7}, 0)
		require.NoError(t, err)
		assert.Equal(t, 7, u.PointsBalance)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		_, err := repo.ApplyIncrements(context.Background(), id, repositories.UserIncrements{PointsBalance: 7}, 0)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	mt.Run("balance guard", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		_, err := repo.ApplyIncrements(context.Background(), id, repositories.UserIncrements{PointsBalance: -50, TotalPointsSpent: 50}, 50)
		assert.ErrorIs(t, err, repositories.ErrConditionNotMet)
	})
}
