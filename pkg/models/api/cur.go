package api

// LineItem mirrors one stored row for raw row listings.
type LineItem struct {
	ResourceID   *string `json:"resourceId"`
	AccountID    *string `json:"accountId"`
	Region       string  `json:"region"`
	UsageStart   string  `json:"usageStartDate"`
	UsageEnd     string  `json:"usageEndDate"`
	Cost         float64 `json:"unblendedCost"`
	Currency     string  `json:"currency"`
	LineItemType string  `json:"lineItemType"`
	InstanceType *string `json:"instanceType,omitempty"`
	Name         *string `json:"name,omitempty"`
	Platform     *string `json:"platform,omitempty"`
	Tenancy      *string `json:"tenancy,omitempty"`
	TermInMonths *int64  `json:"termInMos,omitempty"`
	ResourceType *string `json:"type,omitempty"`
	UID          *string `json:"uid,omitempty"`
	Datasource   *string `json:"datasource,omitempty"`
}

// ResourceCost is one (resource, currency) cost group.
type ResourceCost struct {
	ResourceID string  `json:"resourceId"`
	Currency   string  `json:"currency"`
	Cost       float64 `json:"cost"`
}

// CostSummary keeps one total per currency; totals are never collapsed
// across currencies.
type CostSummary struct {
	Accounts             int64              `json:"accounts"`
	ComplianceIssueCount int64              `json:"complianceIssueCount"`
	Resources            int64              `json:"resources"`
	TotalCost            map[string]float64 `json:"totalCost"`
}

// PricingPlan is one commitment model's price pair.
type PricingPlan struct {
	HourlyCost    float64 `json:"hourlyCost"`
	UpfrontCharge float64 `json:"upfrontCharge"`
}

// ResourceCostDiscount is the composite per-resource answer. Cost and
// Currency carry the first currency group; Costs lists every group found in
// the trailing window. Snapshot-derived fields are omitted when no recent
// row exists for the resource.
type ResourceCostDiscount struct {
	InstanceID                    string         `json:"instanceId"`
	HasRightSizingRecommendations bool           `json:"hasRightSizingRecommendations"`
	Cost                          float64        `json:"cost"`
	Currency                      string         `json:"currency"`
	Costs                         []ResourceCost `json:"costs,omitempty"`

	Account        string       `json:"account,omitempty"`
	InstanceType   *string      `json:"instanceType,omitempty"`
	Name           *string      `json:"name,omitempty"`
	Platform       *string      `json:"platform,omitempty"`
	Region         string       `json:"region,omitempty"`
	Tenancy        *string      `json:"tenancy,omitempty"`
	TermInMonths   *int64       `json:"termInMos,omitempty"`
	ResourceType   *string      `json:"type,omitempty"`
	UID            *string      `json:"uid,omitempty"`
	Datasource     *string      `json:"datasource,omitempty"`
	AllUpfront     *PricingPlan `json:"allUpfront,omitempty"`
	NoUpfront      *PricingPlan `json:"noUpfront,omitempty"`
	PartialUpfront *PricingPlan `json:"partialUpfront,omitempty"`
}
