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

// Compile-time check to ensure TransactionRepository implements the interface
var _ repositories.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository handles MongoDB operations for Transaction
type TransactionRepository struct {
	collection *mongo.Collection
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{
		collection: db.Collection(pkgmongo.CollectionTransactions),
	}
}

// Create inserts a new transaction record
func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	transaction.ID = primitive.NewObjectID()
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, transaction)
	return err
}

// FindByUserID finds the user's transactions, newest first
func (r *TransactionRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.Transaction, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	transactions := []*models.Transaction{}
	if err = cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
