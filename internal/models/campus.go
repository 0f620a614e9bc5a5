package models

import "time"

// University aggregates recycling totals for a campus. ID is a slug.
type University struct {
	ID                 string    `bson:"_id" json:"id"`
	Name               string    `bson:"name" json:"name"`
	TotalPoints        int       `bson:"totalPoints" json:"totalPoints"`
	TotalItemsRecycled int       `bson:"totalItemsRecycled" json:"totalItemsRecycled"`
	TotalCO2Saved      float64   `bson:"totalCO2Saved" json:"totalCO2Saved"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
}

// ResidenceHall aggregates recycling totals for a hall of residence.
type ResidenceHall struct {
	ID                 string    `bson:"_id" json:"id"`
	Name               string    `bson:"name" json:"name"`
	University         string    `bson:"university" json:"university"`
	TotalPoints        int       `bson:"totalPoints" json:"totalPoints"`
	TotalItemsRecycled int       `bson:"totalItemsRecycled" json:"totalItemsRecycled"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
}

// LeaderboardEntry is one ranked row of any leaderboard.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	University    string  `json:"university,omitempty"`
	Points        int     `json:"points"`
	ItemsRecycled int     `json:"itemsRecycled"`
	CO2Saved      float64 `json:"co2Saved"`
}

// UserRank is a user's position on the individual leaderboard.
type UserRank struct {
	Rank           int64  `json:"rank"`
	UniversityRank int64  `json:"universityRank,omitempty"`
	PointsBalance  int    `json:"pointsBalance"`
	University     string `json:"university,omitempty"`
}
