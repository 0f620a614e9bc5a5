package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecyclingActivity is one recorded recycling event. Points and CO2 are fixed
// at creation and never recomputed.
type RecyclingActivity struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Material   string             `bson:"material" json:"material"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Points     int                `bson:"points" json:"points"`
	CO2Impact  float64            `bson:"co2Impact" json:"co2Impact"`
	Location   string             `bson:"location" json:"location"`
	DedupeCode string             `bson:"barcode,omitempty" json:"barcode,omitempty"`
	Verified   bool               `bson:"verified" json:"verified"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}

// RecordEventRequest is the body of POST /recycling/events.
type RecordEventRequest struct {
	Material   string `json:"material" binding:"required"`
	Quantity   int    `json:"quantity" binding:"omitempty,min=1,max=100"`
	Location   string `json:"location" binding:"omitempty,max=120"`
	DedupeCode string `json:"dedupeCode" binding:"omitempty,max=128"`
}

// EventResult describes the outcome of a recorded event.
type EventResult struct {
	ActivityID string  `json:"activityId"`
	Material   string  `json:"material"`
	Points     int     `json:"points"`
	CO2Impact  float64 `json:"co2Impact"`
	NewBalance int     `json:"newBalance"`
	TotalItems int     `json:"totalItems"`
	TotalCO2   float64 `json:"totalCO2"`
}

// EnvironmentalStats summarises a user's CO2 contribution.
type EnvironmentalStats struct {
	TotalCO2Saved     float64            `json:"totalCO2Saved"`
	ImpactScore       float64            `json:"impactScore"`
	MaterialBreakdown map[string]float64 `json:"materialBreakdown"`
	TotalItems        int                `json:"totalItems"`
	DaysActive        int                `json:"daysActive"`
}
