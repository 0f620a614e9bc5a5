package mongodb

import (
	"context"
	"sort"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	pkgmongo "github.com/adbeam/recycling-rewards-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.VoucherTemplateRepository = (*VoucherTemplateRepository)(nil)

// VoucherTemplateRepository handles MongoDB operations for VoucherTemplate
type VoucherTemplateRepository struct {
	collection *mongo.Collection
}

// NewVoucherTemplateRepository creates a new VoucherTemplateRepository
func NewVoucherTemplateRepository(db *mongo.Database) *VoucherTemplateRepository {
	return &VoucherTemplateRepository{
		collection: db.Collection(pkgmongo.CollectionVoucherTemplates),
	}
}

// Create inserts a new template
func (r *VoucherTemplateRepository) Create(ctx context.Context, template *models.VoucherTemplate) error {
	template.ID = primitive.NewObjectID()
	template.CreatedAt = time.Now()
	template.UpdatedAt = template.CreatedAt
	_, err := r.collection.InsertOne(ctx, template)
	return translate(err)
}

// UpsertByName replaces the template with the same name, or inserts it.
// Inventory of an existing template is left alone.
func (r *VoucherTemplateRepository) UpsertByName(ctx context.Context, template *models.VoucherTemplate) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"pointsCost":      template.PointsCost,
			"discountType":    template.DiscountType,
			"discountValue":   template.DiscountValue,
			"vendorName":      template.VendorName,
			"category":        template.Category,
			"termsConditions": template.TermsConditions,
			"validDays":       template.ValidDays,
			"isActive":        template.IsActive,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{
			"inventory": template.Inventory,
			"createdAt": now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"name": template.Name}, update, options.Update().SetUpsert(true))
	return err
}

// FindByID finds a template by ID
func (r *VoucherTemplateRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.VoucherTemplate, error) {
	var template models.VoucherTemplate
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&template); err != nil {
		return nil, translate(err)
	}
	return &template, nil
}

// FindActive lists active templates, cheapest first
func (r *VoucherTemplateRepository) FindActive(ctx context.Context) ([]*models.VoucherTemplate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pointsCost", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []*models.VoucherTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Categories returns the distinct non-empty template categories, sorted
func (r *VoucherTemplateRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// DecrementInventory takes one unit of stock if any is left
func (r *VoucherTemplateRepository) DecrementInventory(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "inventory": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"inventory": -1}, "$set": bson.M{"updatedAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrConditionNotMet
	}
	return nil
}

// RestoreInventory gives back one unit taken by DecrementInventory
func (r *VoucherTemplateRepository) RestoreInventory(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "inventory": bson.M{"$type": "number"}}
	update := bson.M{"$inc": bson.M{"inventory": 1}, "$set": bson.M{"updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}
