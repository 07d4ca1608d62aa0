package cost

import (
	"context"
	"time"

	"github.com/de-tools/cur-atlas/pkg/models/store"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureTable(ctx context.Context, sourcePath string) error {
	args := m.Called(ctx, sourcePath)
	return args.Error(0)
}

func (m *mockStore) Healthy(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *mockStore) AllRows(ctx context.Context) ([]store.LineItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.LineItem), args.Error(1)
}

func (m *mockStore) RowsByRegion(ctx context.Context, region string) ([]store.LineItem, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.LineItem), args.Error(1)
}

func (m *mockStore) Cost30Days(ctx context.Context, region string) ([]store.ResourceCost, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.ResourceCost), args.Error(1)
}

func (m *mockStore) TotalCostBetween(
	ctx context.Context,
	region string,
	from, until time.Time,
) ([]store.ResourceCost, error) {
	args := m.Called(ctx, region, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.ResourceCost), args.Error(1)
}

func (m *mockStore) CostSummaryBetween(
	ctx context.Context,
	region string,
	from, until time.Time,
) (*store.CostSummary, error) {
	args := m.Called(ctx, region, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.CostSummary), args.Error(1)
}

func (m *mockStore) HasRecentDiscount(ctx context.Context, resourceID string, accountIDs []string) (bool, error) {
	args := m.Called(ctx, resourceID, accountIDs)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ResourceCost30Days(
	ctx context.Context,
	resourceID string,
	accountIDs []string,
) ([]store.ResourceCost, error) {
	args := m.Called(ctx, resourceID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.ResourceCost), args.Error(1)
}

func (m *mockStore) LatestSnapshot(
	ctx context.Context,
	resourceID string,
	accountIDs []string,
) (*store.ResourceSnapshot, error) {
	args := m.Called(ctx, resourceID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ResourceSnapshot), args.Error(1)
}

func (m *mockStore) DiscoverIdentifiers(ctx context.Context) (*store.Identifiers, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Identifiers), args.Error(1)
}
