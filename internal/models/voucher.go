package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoucherStatus is the lifecycle state of a voucher. VoucherStatusExpired is
// never written; it is derived from ExpiresAt when the voucher is read.
type VoucherStatus string

const (
	VoucherStatusActive   VoucherStatus = "active"
	VoucherStatusRedeemed VoucherStatus = "redeemed"
	VoucherStatusExpired  VoucherStatus = "expired"
)

// VoucherTemplate describes a reward students can buy with points.
// A nil Inventory means unlimited stock.
type VoucherTemplate struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty" yaml:"-"`
	Name            string             `bson:"name" json:"name" yaml:"name"`
	PointsCost      int                `bson:"pointsCost" json:"pointsCost" yaml:"pointsCost"`
	DiscountType    string             `bson:"discountType" json:"discountType" yaml:"discountType"`
	DiscountValue   float64            `bson:"discountValue" json:"discountValue" yaml:"discountValue"`
	VendorName      string             `bson:"vendorName" json:"vendorName" yaml:"vendorName"`
	Category        string             `bson:"category" json:"category" yaml:"category"`
	TermsConditions string             `bson:"termsConditions,omitempty" json:"termsConditions,omitempty" yaml:"termsConditions"`
	Inventory       *int               `bson:"inventory" json:"inventory" yaml:"inventory"`
	ValidDays       int                `bson:"validDays" json:"validDays" yaml:"validDays"`
	IsActive        bool               `bson:"isActive" json:"isActive" yaml:"isActive"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt" yaml:"-"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// Voucher is a minted, single-use reward owned by a user.
type Voucher struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	TemplateID    primitive.ObjectID `bson:"templateId" json:"templateId"`
	TemplateName  string             `bson:"templateName" json:"templateName"`
	VoucherCode   string             `bson:"voucherCode" json:"voucherCode"`
	Status        VoucherStatus      `bson:"status" json:"status"`
	DiscountType  string             `bson:"discountType" json:"discountType"`
	DiscountValue float64            `bson:"discountValue" json:"discountValue"`
	VendorName    string             `bson:"vendorName" json:"vendorName"`
	Category      string             `bson:"category" json:"category"`
	PointsCost    int                `bson:"pointsCost" json:"pointsCost"`
	GeneratedAt   time.Time          `bson:"generatedAt" json:"generatedAt"`
	ExpiresAt     time.Time          `bson:"expiresAt" json:"expiresAt"`
	RedeemedAt    *time.Time         `bson:"redeemedAt" json:"redeemedAt"`
	RedeemedBy    *string            `bson:"redeemedBy" json:"redeemedBy"`
}

// VoucherView is a voucher as reported to callers, with its derived status.
type VoucherView struct {
	Voucher
	DaysUntilExpiry int `json:"daysUntilExpiry"`
}

// GenerateVoucherRequest is the body of POST /vouchers.
type GenerateVoucherRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

// VerifyResult answers a voucher code lookup.
type VerifyResult struct {
	Valid   bool         `json:"valid"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
	Voucher *VoucherView `json:"voucher,omitempty"`
}

// CreateTemplateRequest is the body of POST /admin/voucher-templates.
type CreateTemplateRequest struct {
	Name            string  `json:"name" binding:"required"`
	PointsCost      int     `json:"pointsCost" binding:"min=0"`
	DiscountType    string  `json:"discountType" binding:"required,oneof=percentage fixed free_item"`
	DiscountValue   float64 `json:"discountValue" binding:"min=0"`
	VendorName      string  `json:"vendorName" binding:"required"`
	Category        string  `json:"category"`
	TermsConditions string  `json:"termsConditions"`
	Inventory       *int    `json:"inventory" binding:"omitempty,min=0"`
	ValidDays       int     `json:"validDays" binding:"omitempty,min=1"`
	IsActive        *bool   `json:"isActive"`
}
