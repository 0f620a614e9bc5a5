package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types
const (
	TransactionRecycling         = "recycling"
	TransactionVoucherPurchase   = "voucher_purchase"
	TransactionVoucherRedemption = "voucher_redemption"
)

// Transaction is an append-only audit record of a points movement or voucher event.
type Transaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Type        string              `bson:"type" json:"type"`
	Amount      int                 `bson:"amount" json:"amount"`
	Description string              `bson:"description" json:"description"`
	ActivityID  *primitive.ObjectID `bson:"activityId,omitempty" json:"activityId,omitempty"`
	VoucherID   *primitive.ObjectID `bson:"voucherId,omitempty" json:"voucherId,omitempty"`
	VendorID    string              `bson:"vendorId,omitempty" json:"vendorId,omitempty"`
	Timestamp   time.Time           `bson:"timestamp" json:"timestamp"`
}
