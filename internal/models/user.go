package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleStudent = "student"
	RoleVendor  = "vendor"
	RoleAdmin   = "admin"
)

// User represents a student (or vendor/admin) account and its running totals.
// PointsBalance never exceeds TotalPointsEarned - TotalPointsSpent.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email              string             `bson:"email" json:"email"`
	Password           string             `bson:"password" json:"-"`
	FirstName          string             `bson:"firstName" json:"firstName"`
	LastName           string             `bson:"lastName" json:"lastName"`
	DisplayName        string             `bson:"displayName" json:"displayName"`
	StudentID          string             `bson:"studentId,omitempty" json:"studentId,omitempty"`
	University         string             `bson:"university,omitempty" json:"university,omitempty"`
	ResidenceHall      string             `bson:"residenceHall,omitempty" json:"residenceHall,omitempty"`
	Role               string             `bson:"role" json:"role"`
	AccountStatus      string             `bson:"accountStatus" json:"accountStatus"`
	PointsBalance      int                `bson:"pointsBalance" json:"pointsBalance"`
	TotalPointsEarned  int                `bson:"totalPointsEarned" json:"totalPointsEarned"`
	TotalPointsSpent   int                `bson:"totalPointsSpent" json:"totalPointsSpent"`
	TotalItemsRecycled int                `bson:"totalItemsRecycled" json:"totalItemsRecycled"`
	TotalCO2Saved      float64            `bson:"totalCO2Saved" json:"totalCO2Saved"`
	LastActivityDate   time.Time          `bson:"lastActivityDate,omitempty" json:"lastActivityDate,omitempty"`
	LastLogin          time.Time          `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Stats is the public view of a user's ledger totals.
type Stats struct {
	UserID             string    `json:"userId"`
	DisplayName        string    `json:"displayName"`
	PointsBalance      int       `json:"pointsBalance"`
	TotalPointsEarned  int       `json:"totalPointsEarned"`
	TotalPointsSpent   int       `json:"totalPointsSpent"`
	TotalItemsRecycled int       `json:"totalItemsRecycled"`
	TotalCO2Saved      float64   `json:"totalCO2Saved"`
	LastActivityDate   time.Time `json:"lastActivityDate,omitempty"`
}

// StatsOf projects a user onto its Stats.
func StatsOf(u *User) *Stats {
	return &Stats{
		UserID:             u.ID.Hex(),
		DisplayName:        u.DisplayName,
		PointsBalance:      u.PointsBalance,
		TotalPointsEarned:  u.TotalPointsEarned,
		TotalPointsSpent:   u.TotalPointsSpent,
		TotalItemsRecycled: u.TotalItemsRecycled,
		TotalCO2Saved:      u.TotalCO2Saved,
		LastActivityDate:   u.LastActivityDate,
	}
}

// Dashboard bundles everything the home screen shows for a user.
type Dashboard struct {
	Stats          *Stats               `json:"stats"`
	ImpactScore    float64              `json:"impactScore"`
	Rank           int64                `json:"rank"`
	RecentActivity []*RecyclingActivity `json:"recentActivity"`
}
