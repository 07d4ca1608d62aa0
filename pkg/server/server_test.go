package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/cur-atlas/pkg/models/store"
	"github.com/de-tools/cur-atlas/pkg/services/cost"
	"github.com/de-tools/cur-atlas/pkg/store/duckdb/cur"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore satisfies cur.Store with overridable behavior per test.
type stubStore struct {
	healthy          bool
	rowsByRegion     func(region string) ([]store.LineItem, error)
	cost30Days       func(region string) ([]store.ResourceCost, error)
	totalCostBetween func(region string, from, until time.Time) ([]store.ResourceCost, error)
	costSummary      func(region string, from, until time.Time) (*store.CostSummary, error)
	identifiers      func() (*store.Identifiers, error)
	discount         func(resourceID string) (bool, error)
	resourceCost     func(resourceID string) ([]store.ResourceCost, error)
	snapshot         func(resourceID string) (*store.ResourceSnapshot, error)
}

func (s *stubStore) EnsureTable(context.Context, string) error { return nil }
func (s *stubStore) Healthy(context.Context) bool              { return s.healthy }

func (s *stubStore) AllRows(context.Context) ([]store.LineItem, error) {
	return []store.LineItem{}, nil
}

func (s *stubStore) RowsByRegion(_ context.Context, region string) ([]store.LineItem, error) {
	return s.rowsByRegion(region)
}

func (s *stubStore) Cost30Days(_ context.Context, region string) ([]store.ResourceCost, error) {
	return s.cost30Days(region)
}

func (s *stubStore) TotalCostBetween(
	_ context.Context,
	region string,
	from, until time.Time,
) ([]store.ResourceCost, error) {
	return s.totalCostBetween(region, from, until)
}

func (s *stubStore) CostSummaryBetween(
	_ context.Context,
	region string,
	from, until time.Time,
) (*store.CostSummary, error) {
	return s.costSummary(region, from, until)
}

func (s *stubStore) HasRecentDiscount(_ context.Context, resourceID string, _ []string) (bool, error) {
	return s.discount(resourceID)
}

func (s *stubStore) ResourceCost30Days(_ context.Context, resourceID string, _ []string) ([]store.ResourceCost, error) {
	return s.resourceCost(resourceID)
}

func (s *stubStore) LatestSnapshot(_ context.Context, resourceID string, _ []string) (*store.ResourceSnapshot, error) {
	return s.snapshot(resourceID)
}

func (s *stubStore) DiscoverIdentifiers(context.Context) (*store.Identifiers, error) {
	return s.identifiers()
}

func newTestServer(t *testing.T, stub *stubStore) *httptest.Server {
	t.Helper()
	router := ConfigureRouter(Config{
		Dependencies: Dependencies{
			Executor: cost.NewExecutor(stub),
			Enricher: cost.NewEnricher(stub, 2),
			Logger:   zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer(t, &stubStore{healthy: true})
		status, _ := get(t, ts, "/api/v1/cur/health")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("unhealthy", func(t *testing.T) {
		ts := newTestServer(t, &stubStore{healthy: false})
		status, _ := get(t, ts, "/api/v1/cur/health")
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})
}

func TestServer_RowsByRegion(t *testing.T) {
	resourceID := "i-abc"
	rows := []store.LineItem{{
		ResourceID: &resourceID,
		Region:     "us-east-2",
		UsageStart: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		UsageEnd:   time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		Cost:       1.25,
		Currency:   "USD",
	}}

	tests := []struct {
		name           string
		stub           func(region string) ([]store.LineItem, error)
		path           string
		expectedStatus int
	}{
		{
			name:           "rows found",
			stub:           func(string) ([]store.LineItem, error) { return rows, nil },
			path:           "/api/v1/cur/region/us-east-2",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "no rows",
			stub:           func(string) ([]store.LineItem, error) { return []store.LineItem{}, nil },
			path:           "/api/v1/cur/region/eu-central-1",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "query failure",
			stub:           func(string) ([]store.LineItem, error) { return nil, cur.ErrQueryFailed },
			path:           "/api/v1/cur/region/us-east-2",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubStore{healthy: true, rowsByRegion: tt.stub})
			status, body := get(t, ts, tt.path)
			assert.Equal(t, tt.expectedStatus, status)

			if tt.expectedStatus == http.StatusOK {
				var decoded []map[string]any
				require.NoError(t, json.Unmarshal(body, &decoded))
				require.Len(t, decoded, 1)
				assert.Equal(t, "i-abc", decoded[0]["resourceId"])
				assert.Equal(t, "us-east-2", decoded[0]["region"])
			}
		})
	}
}

func TestServer_TotalCost_DateValidation(t *testing.T) {
	ts := newTestServer(t, &stubStore{
		healthy: true,
		totalCostBetween: func(string, time.Time, time.Time) ([]store.ResourceCost, error) {
			return []store.ResourceCost{{ResourceID: "i-1", Currency: "USD", Cost: 1}}, nil
		},
	})

	status, _ := get(t, ts, "/api/v1/cur/costs/region/us-east-2/total?from=not-a-date")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = get(t, ts, "/api/v1/cur/costs/region/us-east-2/total?from=2025-06-01&until=2025-06-30")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_CostSummary(t *testing.T) {
	t.Run("multi-currency map survives the wire", func(t *testing.T) {
		ts := newTestServer(t, &stubStore{
			healthy: true,
			costSummary: func(string, time.Time, time.Time) (*store.CostSummary, error) {
				return &store.CostSummary{
					Accounts:  2,
					RowCount:  5,
					Resources: 3,
					TotalCostByCurrency: map[string]float64{
						"USD": 10.5,
						"EUR": 3.25,
					},
				}, nil
			},
		})

		status, body := get(t, ts, "/api/v1/cur/costs/region/us-east-2/summary")
		require.Equal(t, http.StatusOK, status)

		var decoded struct {
			Accounts             int64              `json:"accounts"`
			ComplianceIssueCount int64              `json:"complianceIssueCount"`
			Resources            int64              `json:"resources"`
			TotalCost            map[string]float64 `json:"totalCost"`
		}
		require.NoError(t, json.Unmarshal(body, &decoded))
		assert.Equal(t, int64(2), decoded.Accounts)
		assert.Equal(t, int64(5), decoded.ComplianceIssueCount)
		assert.InDelta(t, 10.5, decoded.TotalCost["USD"], 1e-9)
		assert.InDelta(t, 3.25, decoded.TotalCost["EUR"], 1e-9)
	})

	t.Run("zero rows responds not found", func(t *testing.T) {
		ts := newTestServer(t, &stubStore{
			healthy: true,
			costSummary: func(string, time.Time, time.Time) (*store.CostSummary, error) {
				return &store.CostSummary{TotalCostByCurrency: map[string]float64{}}, nil
			},
		})

		status, _ := get(t, ts, "/api/v1/cur/costs/region/eu-central-1/summary")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestServer_ResourceCostDiscounts(t *testing.T) {
	snap := &store.ResourceSnapshot{AccountID: "111", Region: "us-east-2"}
	ts := newTestServer(t, &stubStore{
		healthy: true,
		identifiers: func() (*store.Identifiers, error) {
			return &store.Identifiers{ResourceIDs: []string{"i-1", "i-2"}, AccountIDs: []string{"111"}}, nil
		},
		discount: func(resourceID string) (bool, error) { return resourceID == "i-1", nil },
		resourceCost: func(resourceID string) ([]store.ResourceCost, error) {
			if resourceID == "i-2" {
				return nil, cur.ErrQueryFailed
			}
			return []store.ResourceCost{{ResourceID: resourceID, Currency: "EUR", Cost: 42}}, nil
		},
		snapshot: func(resourceID string) (*store.ResourceSnapshot, error) {
			if resourceID == "i-2" {
				return nil, nil
			}
			return snap, nil
		},
	})

	status, body := get(t, ts, "/api/v1/cur/resources/cost-discount")
	require.Equal(t, http.StatusOK, status)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "i-1", decoded[0]["instanceId"])
	assert.Equal(t, true, decoded[0]["hasRightSizingRecommendations"])
	assert.Equal(t, "EUR", decoded[0]["currency"])
	assert.InDelta(t, 42.0, decoded[0]["cost"].(float64), 1e-9)
	assert.Equal(t, "111", decoded[0]["account"])

	// i-2's failed cost probe falls back to 0 USD and its snapshot fields
	// are simply absent.
	assert.Equal(t, "i-2", decoded[1]["instanceId"])
	assert.Equal(t, false, decoded[1]["hasRightSizingRecommendations"])
	assert.Equal(t, "USD", decoded[1]["currency"])
	assert.InDelta(t, 0.0, decoded[1]["cost"].(float64), 1e-9)
	assert.NotContains(t, decoded[1], "account")
}
