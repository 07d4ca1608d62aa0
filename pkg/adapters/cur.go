package adapters

import (
	"github.com/de-tools/cur-atlas/pkg/models/api"
	"github.com/de-tools/cur-atlas/pkg/models/store"
)

const (
	dateLayout      = "2006-01-02"
	defaultCurrency = "USD"
)

func MapLineItemStoreToApi(item store.LineItem) api.LineItem {
	return api.LineItem{
		ResourceID:   item.ResourceID,
		AccountID:    item.AccountID,
		Region:       item.Region,
		UsageStart:   item.UsageStart.Format(dateLayout),
		UsageEnd:     item.UsageEnd.Format(dateLayout),
		Cost:         item.Cost,
		Currency:     item.Currency,
		LineItemType: item.LineItemType,
		InstanceType: item.InstanceType,
		Name:         item.Name,
		Platform:     item.Platform,
		Tenancy:      item.Tenancy,
		TermInMonths: item.TermInMonths,
		ResourceType: item.ResourceType,
		UID:          item.UID,
		Datasource:   item.Datasource,
	}
}

func MapLineItemsStoreToApi(items []store.LineItem) []api.LineItem {
	out := make([]api.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, MapLineItemStoreToApi(item))
	}
	return out
}

func MapResourceCostStoreToApi(rc store.ResourceCost) api.ResourceCost {
	return api.ResourceCost{
		ResourceID: rc.ResourceID,
		Currency:   rc.Currency,
		Cost:       rc.Cost,
	}
}

func MapResourceCostsStoreToApi(costs []store.ResourceCost) []api.ResourceCost {
	out := make([]api.ResourceCost, 0, len(costs))
	for _, rc := range costs {
		out = append(out, MapResourceCostStoreToApi(rc))
	}
	return out
}

func MapCostSummaryStoreToApi(summary store.CostSummary) api.CostSummary {
	totals := make(map[string]float64, len(summary.TotalCostByCurrency))
	for currency, total := range summary.TotalCostByCurrency {
		totals[currency] = total
	}
	return api.CostSummary{
		Accounts:             summary.Accounts,
		ComplianceIssueCount: summary.RowCount,
		Resources:            summary.Resources,
		TotalCost:            totals,
	}
}

// MapResourceCostDiscountStoreToApi flattens the composite record into one
// response object. When no currency group exists the top-level cost defaults
// to 0 USD; snapshot fields stay absent when the snapshot is nil.
func MapResourceCostDiscountStoreToApi(record store.ResourceCostDiscount) api.ResourceCostDiscount {
	out := api.ResourceCostDiscount{
		InstanceID:                    record.ResourceID,
		HasRightSizingRecommendations: record.HasDiscount,
		Cost:                          0,
		Currency:                      defaultCurrency,
		Costs:                         MapResourceCostsStoreToApi(record.Costs),
	}
	if len(record.Costs) > 0 {
		out.Cost = record.Costs[0].Cost
		out.Currency = record.Costs[0].Currency
	}

	if snap := record.Snapshot; snap != nil {
		out.Account = snap.AccountID
		out.InstanceType = snap.InstanceType
		out.Name = snap.Name
		out.Platform = snap.Platform
		out.Region = snap.Region
		out.Tenancy = snap.Tenancy
		out.TermInMonths = snap.TermInMonths
		out.ResourceType = snap.ResourceType
		out.UID = snap.UID
		out.Datasource = snap.Datasource
		out.AllUpfront = mapPricingPlan(snap.AllUpfront)
		out.NoUpfront = mapPricingPlan(snap.NoUpfront)
		out.PartialUpfront = mapPricingPlan(snap.PartialUpfront)
	}
	return out
}

func MapResourceCostDiscountsStoreToApi(records []store.ResourceCostDiscount) []api.ResourceCostDiscount {
	out := make([]api.ResourceCostDiscount, 0, len(records))
	for _, record := range records {
		out = append(out, MapResourceCostDiscountStoreToApi(record))
	}
	return out
}

func mapPricingPlan(plan store.PricingPlan) *api.PricingPlan {
	return &api.PricingPlan{HourlyCost: plan.HourlyCost, UpfrontCharge: plan.UpfrontCharge}
}
