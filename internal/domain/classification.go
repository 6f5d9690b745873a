package domain

import "strings"

// Category is one member of the fixed classification taxonomy.
type Category string

const (
	CategoryPothole         Category = "Pothole"
	CategoryStreetlight     Category = "Streetlight Issue"
	CategoryGarbage         Category = "Garbage"
	CategoryWaterLeakage    Category = "Water Leakage"
	CategoryTrafficSignal   Category = "Traffic Signal"
	CategoryRoadDamage      Category = "Road Damage"
	CategoryDrainage        Category = "Drainage"
	CategoryParkMaintenance Category = "Park Maintenance"
	CategoryOther           Category = "Other"
)

// Categories lists the taxonomy in prompt order.
var Categories = []Category{
	CategoryPothole,
	CategoryStreetlight,
	CategoryGarbage,
	CategoryWaterLeakage,
	CategoryTrafficSignal,
	CategoryRoadDamage,
	CategoryDrainage,
	CategoryParkMaintenance,
	CategoryOther,
}

// LookupCategory matches s against the taxonomy ignoring case and
// surrounding whitespace.
func LookupCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Classification is the classifier verdict stored on an issue.
type Classification struct {
	Category   Category
	Confidence int
}

// FallbackClassification is used whenever the classifier cannot produce a verdict.
var FallbackClassification = Classification{Category: CategoryOther, Confidence: 0}
