package impact

import (
	"math"
	"time"
)

const (
	maxScore        = 100.0
	longevityDays   = 30.0
	scoreMultiplier = 10.0
)

// Event is the slice of a recycling activity the scorer needs.
type Event struct {
	Material  Material
	Quantity  int
	Timestamp time.Time
}

// Breakdown is the full result of scoring a history.
type Breakdown struct {
	PerMaterialCO2 map[Material]float64 `json:"perMaterialCo2"`
	TotalCO2       float64              `json:"totalCo2"`
	TotalItems     int                  `json:"totalItems"`
	DaysActive     int                  `json:"daysActive"`
	// Longevity is min(1, daysActive/30). It is reported but does not feed Score.
	Longevity float64 `json:"longevity"`
	Diversity float64 `json:"diversity"`
	Score     float64 `json:"score"`
}

// Score computes the impact breakdown of events. Order does not matter.
// An empty history scores exactly 0.
func Score(events []Event) Breakdown {
	b := Breakdown{PerMaterialCO2: make(map[Material]float64, len(TrackedMaterials))}
	for _, m := range TrackedMaterials {
		b.PerMaterialCO2[m] = 0
	}
	if len(events) == 0 {
		return b
	}

	var first, last time.Time
	seen := make(map[Material]struct{}, len(TrackedMaterials))
	for _, e := range events {
		qty := e.Quantity
		if qty <= 0 {
			qty = 1
		}
		b.TotalItems += qty

		if e.Material.IsTracked() {
			seen[e.Material] = struct{}{}
			b.PerMaterialCO2[e.Material] += CO2PerUnit(e.Material) * float64(qty)
		}

		if e.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() || e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if last.IsZero() || e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}

	for m, v := range b.PerMaterialCO2 {
		b.TotalCO2 += v
		b.PerMaterialCO2[m] = Round(v, 3)
	}

	b.DaysActive = 1
	if !first.IsZero() {
		b.DaysActive = int(last.Sub(first)/(24*time.Hour)) + 1
	}
	b.Longevity = math.Min(1, float64(b.DaysActive)/longevityDays)

	b.Diversity = float64(len(seen)) / float64(len(TrackedMaterials))
	y := math.Sqrt(b.Diversity)

	integral := 0.5
	if y > 0 {
		integral = 0.5 * math.Log(math.Sqrt(1+y*y)+1) / y
	}

	b.Score = Round2(math.Min(maxScore, integral*b.TotalCO2*scoreMultiplier))
	if b.Score < 0 {
		b.Score = 0
	}
	b.TotalCO2 = Round(b.TotalCO2, 3)
	return b
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return Round(v, 2)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
