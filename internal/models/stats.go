package models

// DensityPoint is one geolocated sighting used for map visualization
type DensityPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Density int64   `json:"density"`
}

// BoundingBox is an inclusive geographic region
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// SpeciesRegionStat aggregates one species inside a bounding box
type SpeciesRegionStat struct {
	Sightings  int64 `json:"sightings"`
	Checklists int64 `json:"checklists"`
}

// Contributor is one observer leaderboard row
type Contributor struct {
	ObserverID string `json:"observer_id"`
	Checklists int64  `json:"checklists"`
}

// RegionStats is the result of a bounding box aggregation
type RegionStats struct {
	SpeciesStats    map[string]SpeciesRegionStat `json:"species_stats"`
	TopContributors []Contributor                `json:"top_contributors"`
}

// TrendPoint is the total observation count for one observation date
type TrendPoint struct {
	Date  Date  `json:"date"`
	Count int64 `json:"count"`
}
