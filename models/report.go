package models

// PriceBucket is one bar of the price histogram, covering [Low, High).
type PriceBucket struct {
	Low   float64
	High  float64
	Count int
}

// InsightReport holds analytics computed over the current snapshot and
// the captured price history.
type InsightReport struct {
	TrackedItems  int
	PricedItems   int
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	Cheapest      *SnapshotRow
	MostExpensive *SnapshotRow
	TopRated      []*SnapshotRow
	ItemsByList   map[string]int
	Histogram     []PriceBucket
}
