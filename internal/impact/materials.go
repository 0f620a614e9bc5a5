// Package impact holds the fixed per-material reward tables and the
// environmental impact score computed from a user's recycling history.
// Everything here is pure; callers do the I/O.
package impact

import "strings"

// Material is a recyclable material category.
type Material string

const (
	MaterialPlastic     Material = "plastic"
	MaterialGlass       Material = "glass"
	MaterialAluminum    Material = "aluminum"
	MaterialPaper       Material = "paper"
	MaterialCardboard   Material = "cardboard"
	MaterialMetal       Material = "metal"
	MaterialElectronics Material = "electronics"
	MaterialOther       Material = "other"
)

// TrackedMaterials are the categories that count towards material diversity.
// MaterialOther does not count.
var TrackedMaterials = []Material{
	MaterialPlastic,
	MaterialGlass,
	MaterialAluminum,
	MaterialPaper,
	MaterialCardboard,
	MaterialMetal,
	MaterialElectronics,
}

const (
	defaultPoints = 5
	defaultCO2    = 0.10
)

var pointsTable = map[Material]int{
	MaterialPlastic:     5,
	MaterialGlass:       10,
	MaterialAluminum:    7,
	MaterialPaper:       3,
	MaterialCardboard:   4,
	MaterialMetal:       8,
	MaterialElectronics: 15,
}

// kg CO2 saved per unit recycled.
var co2Table = map[Material]float64{
	MaterialPlastic:     0.15,
	MaterialGlass:       0.25,
	MaterialAluminum:    0.35,
	MaterialPaper:       0.10,
	MaterialCardboard:   0.12,
	MaterialMetal:       0.30,
	MaterialElectronics: 0.50,
}

// ParseMaterial normalises free-form input. Unknown names map to MaterialOther.
func ParseMaterial(s string) Material {
	m := Material(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := pointsTable[m]; ok {
		return m
	}
	return MaterialOther
}

// IsTracked reports whether m is one of TrackedMaterials.
func (m Material) IsTracked() bool {
	_, ok := co2Table[m]
	return ok
}

// PointsPerUnit returns the points awarded for one unit of m.
func PointsPerUnit(m Material) int {
	if p, ok := pointsTable[m]; ok {
		return p
	}
	return defaultPoints
}

// CO2PerUnit returns kilograms of CO2 credited for one unit of m.
func CO2PerUnit(m Material) float64 {
	if w, ok := co2Table[m]; ok {
		return w
	}
	return defaultCO2
}

// PointsFor returns the points for quantity units of m.
func PointsFor(m Material, quantity int) int {
	return PointsPerUnit(m) * quantity
}

// CO2For returns the CO2 credit for quantity units of m, rounded to grams.
func CO2For(m Material, quantity int) float64 {
	return Round(CO2PerUnit(m)*float64(quantity), 3)
}
