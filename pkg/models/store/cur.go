package store

import "time"

// LineItem is one row of the ingested cost-and-usage table. Resource and
// account identifiers are nullable in the source export; rows where either
// is null never take part in per-resource aggregation.
type LineItem struct {
	ResourceID   *string
	AccountID    *string
	Region       string
	UsageStart   time.Time
	UsageEnd     time.Time
	Cost         float64
	Currency     string
	LineItemType string
	InstanceType *string
	Name         *string
	Platform     *string
	Tenancy      *string
	TermInMonths *int64
	ResourceType *string
	UID          *string
	Datasource   *string

	AllUpfront     PricingPlan
	NoUpfront      PricingPlan
	PartialUpfront PricingPlan
}

// PricingPlan is the hourly/upfront cost pair of one commitment model.
type PricingPlan struct {
	HourlyCost    float64
	UpfrontCharge float64
}

// ResourceCost is one (resource, currency) aggregation group. Rows with a
// null resource id never reach these groups.
type ResourceCost struct {
	ResourceID string
	Currency   string
	Cost       float64
}

// CostSummary aggregates a region/date window in a single shape: global
// distinct counts plus one cost total per currency. Costs in different
// currencies are never summed together.
type CostSummary struct {
	Accounts            int64
	RowCount            int64
	Resources           int64
	TotalCostByCurrency map[string]float64
}

// ResourceSnapshot is the projection of the most recent line item of a
// resource, by usage end date.
type ResourceSnapshot struct {
	AccountID    string
	InstanceType *string
	Name         *string
	Platform     *string
	Region       string
	Tenancy      *string
	TermInMonths *int64
	ResourceType *string
	UID          *string
	Datasource   *string

	AllUpfront     PricingPlan
	NoUpfront      PricingPlan
	PartialUpfront PricingPlan
}

// ResourceCostDiscount combines the three independently sourced facts of one
// resource. Costs holds every currency group found in the trailing window,
// ordered by currency code; Snapshot is nil when no recent row exists or the
// snapshot probe failed.
type ResourceCostDiscount struct {
	ResourceID  string
	HasDiscount bool
	Costs       []ResourceCost
	Snapshot    *ResourceSnapshot
}

// Identifiers holds the distinct non-null resource and account ids present
// in the table. The sets are independent, not paired.
type Identifiers struct {
	ResourceIDs []string
	AccountIDs  []string
}
