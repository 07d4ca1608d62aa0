package cost

import (
	"context"

	"github.com/de-tools/cur-atlas/pkg/models/store"
	"github.com/de-tools/cur-atlas/pkg/store/duckdb/cur"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultEnrichWorkers = 4

// Enricher builds one composite cost/discount record per resource out of
// three independent probes: a recent-discount flag, the trailing 30-day
// cost per currency, and the latest descriptive snapshot. A failing probe
// falls back to its documented default and never affects the other probes,
// other resources, or the pipeline as a whole.
type Enricher struct {
	store   cur.Store
	workers int
}

func NewEnricher(store cur.Store, workers int) *Enricher {
	if workers <= 0 {
		workers = DefaultEnrichWorkers
	}
	return &Enricher{store: store, workers: workers}
}

// Enrich produces exactly one record per distinct requested resource id, in
// input order. An empty resource set short-circuits to an empty result
// without touching the store.
func (e *Enricher) Enrich(ctx context.Context, resourceIDs, accountIDs []string) []store.ResourceCostDiscount {
	if len(resourceIDs) == 0 {
		return []store.ResourceCostDiscount{}
	}

	unique := dedupe(resourceIDs)
	records := make([]store.ResourceCostDiscount, len(unique))

	// Bounded fan-out: the store may serialize queries internally, so an
	// unbounded goroutine per resource buys nothing.
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, id := range unique {
		g.Go(func() error {
			records[i] = e.enrichOne(ctx, id, accountIDs)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

// EnrichAll derives the identifier universe from the table itself, then
// enriches it. A discovery failure yields an empty result, not an error.
func (e *Enricher) EnrichAll(ctx context.Context) []store.ResourceCostDiscount {
	ids, err := e.store.DiscoverIdentifiers(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to discover resource and account ids")
		return []store.ResourceCostDiscount{}
	}
	zerolog.Ctx(ctx).Info().
		Int("accounts", len(ids.AccountIDs)).
		Int("resources", len(ids.ResourceIDs)).
		Msg("discovered identifiers for enrichment")
	return e.Enrich(ctx, ids.ResourceIDs, ids.AccountIDs)
}

func (e *Enricher) enrichOne(ctx context.Context, resourceID string, accountIDs []string) store.ResourceCostDiscount {
	logger := zerolog.Ctx(ctx).With().Str("resource_id", resourceID).Logger()
	record := store.ResourceCostDiscount{ResourceID: resourceID}

	hasDiscount, err := e.store.HasRecentDiscount(ctx, resourceID, accountIDs)
	if err != nil {
		logger.Error().Err(err).Msg("discount probe failed, defaulting to false")
		hasDiscount = false
	}
	record.HasDiscount = hasDiscount

	costs, err := e.store.ResourceCost30Days(ctx, resourceID, accountIDs)
	if err != nil {
		logger.Error().Err(err).Msg("cost probe failed, defaulting to empty")
		costs = nil
	}
	record.Costs = costs

	snapshot, err := e.store.LatestSnapshot(ctx, resourceID, accountIDs)
	if err != nil {
		logger.Error().Err(err).Msg("snapshot probe failed, omitting snapshot fields")
		snapshot = nil
	}
	record.Snapshot = snapshot

	return record
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
