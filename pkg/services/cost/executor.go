package cost

import (
	"context"
	"time"

	"github.com/de-tools/cur-atlas/pkg/models/store"
	"github.com/de-tools/cur-atlas/pkg/store/duckdb/cur"
	"github.com/rs/zerolog"
)

// Executor answers the fixed aggregate shapes against the cost-and-usage
// store. "No data" (empty result, nil error) and "query failure" (typed
// error) stay distinct so callers can map the former to not-found and the
// latter to a server error. Failures are logged here, once, at the boundary.
type Executor struct {
	store cur.Store
}

func NewExecutor(store cur.Store) *Executor {
	return &Executor{store: store}
}

func (e *Executor) Healthy(ctx context.Context) bool {
	return e.store.Healthy(ctx)
}

func (e *Executor) AllRows(ctx context.Context) ([]store.LineItem, error) {
	rows, err := e.store.AllRows(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to query all rows")
		return nil, err
	}
	return rows, nil
}

func (e *Executor) RowsByRegion(ctx context.Context, region string) ([]store.LineItem, error) {
	rows, err := e.store.RowsByRegion(ctx, region)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("region", region).Msg("failed to query rows by region")
		return nil, err
	}
	return rows, nil
}

func (e *Executor) Cost30Days(ctx context.Context, region string) ([]store.ResourceCost, error) {
	costs, err := e.store.Cost30Days(ctx, region)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("region", region).Msg("failed to query 30-day costs")
		return nil, err
	}
	return costs, nil
}

func (e *Executor) TotalCostBetween(
	ctx context.Context,
	region string,
	from, until time.Time,
) ([]store.ResourceCost, error) {
	costs, err := e.store.TotalCostBetween(ctx, region, from, until)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("region", region).
			Time("from", from).
			Time("until", until).
			Msg("failed to query total cost")
		return nil, err
	}
	return costs, nil
}

func (e *Executor) CostSummaryBetween(
	ctx context.Context,
	region string,
	from, until time.Time,
) (*store.CostSummary, error) {
	summary, err := e.store.CostSummaryBetween(ctx, region, from, until)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("region", region).
			Time("from", from).
			Time("until", until).
			Msg("failed to query cost summary")
		return nil, err
	}
	return summary, nil
}
