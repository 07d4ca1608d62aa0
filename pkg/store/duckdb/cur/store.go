package cur

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/de-tools/cur-atlas/pkg/models/store"
)

// Ingestion and query errors. Callers branch on these with errors.Is; the
// wrapped message keeps the underlying cause.
var (
	ErrSourceUnavailable = errors.New("cur: source unavailable")
	ErrLoadFailed        = errors.New("cur: load failed")
	ErrQueryFailed       = errors.New("cur: query failed")
)

const tableName = "cur_line_items"

// lineItemColumns is the stable projection used by every row-shaped query.
const lineItemColumns = `line_item_resource_id, line_item_usage_account_id, product_from_region_code,
	line_item_usage_start_date, line_item_usage_end_date, line_item_unblended_cost,
	line_item_currency_code, line_item_line_item_type, product_instance_type, resourcename,
	platform, tenancy, term_in_months, resourcetype, uid, datasource,
	allupfront_hourlycost, allupfront_upfrontcharge, noupfront_hourlycost,
	noupfront_upfrontcharge, partialupfront_hourlycost, partialupfront_upfrontcharge`

const (
	costWindowDays     = 30
	discountWindowDays = 5
)

// Store owns the persistent cost-and-usage table: one-time ingestion from a
// CSV export plus the fixed set of parameterized reads the service answers.
// All read methods are safe for concurrent use once EnsureTable succeeded.
type Store interface {
	EnsureTable(ctx context.Context, sourcePath string) error
	Healthy(ctx context.Context) bool

	AllRows(ctx context.Context) ([]store.LineItem, error)
	RowsByRegion(ctx context.Context, region string) ([]store.LineItem, error)
	Cost30Days(ctx context.Context, region string) ([]store.ResourceCost, error)
	TotalCostBetween(ctx context.Context, region string, from, until time.Time) ([]store.ResourceCost, error)
	CostSummaryBetween(ctx context.Context, region string, from, until time.Time) (*store.CostSummary, error)

	HasRecentDiscount(ctx context.Context, resourceID string, accountIDs []string) (bool, error)
	ResourceCost30Days(ctx context.Context, resourceID string, accountIDs []string) ([]store.ResourceCost, error)
	LatestSnapshot(ctx context.Context, resourceID string, accountIDs []string) (*store.ResourceSnapshot, error)
	DiscoverIdentifiers(ctx context.Context) (*store.Identifiers, error)
}

type Options struct {
	// RowLimit caps every row-shaped result. Enforced here so all consumers
	// truncate uniformly.
	RowLimit int
	// GroupLimit caps the trailing-30-day aggregation groups.
	GroupLimit int
	// Now supplies the clock for trailing windows.
	Now func() time.Time
}

const (
	DefaultRowLimit   = 500
	DefaultGroupLimit = 2
)

type curStore struct {
	db   *sql.DB
	opts Options

	mu          sync.Mutex
	initialized bool
}

func NewStore(db *sql.DB, opts Options) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if opts.RowLimit <= 0 {
		opts.RowLimit = DefaultRowLimit
	}
	if opts.GroupLimit <= 0 {
		opts.GroupLimit = DefaultGroupLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &curStore{db: db, opts: opts}, nil
}

// EnsureTable materializes the cost-and-usage table from the CSV export at
// sourcePath exactly once. Repeat calls, including concurrent ones, are
// no-ops once the table exists; a load either produces the whole table or
// nothing.
func (s *curStore) EnsureTable(ctx context.Context, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	exists, err := s.tableExists(ctx)
	if err != nil {
		return fmt.Errorf("%w: check table existence: %v", ErrLoadFailed, err)
	}
	if exists {
		s.initialized = true
		return nil
	}

	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s AS SELECT * FROM read_csv_auto('%s')",
		tableName, strings.ReplaceAll(sourcePath, "'", "''"),
	)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	s.initialized = true
	return nil
}

func (s *curStore) tableExists(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?", tableName,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Healthy reports whether a trivial read succeeds. It never returns an
// error; failures mean "not healthy".
func (s *curStore) Healthy(ctx context.Context) bool {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one) == nil
}

func (s *curStore) AllRows(ctx context.Context) ([]store.LineItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid LIMIT ?", lineItemColumns, tableName)
	rows, err := s.db.QueryContext(ctx, query, s.opts.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: all rows: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return scanLineItems(rows)
}

func (s *curStore) RowsByRegion(ctx context.Context, region string) ([]store.LineItem, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE product_from_region_code = ? ORDER BY rowid LIMIT ?",
		lineItemColumns, tableName,
	)
	rows, err := s.db.QueryContext(ctx, query, region, s.opts.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: rows by region: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return scanLineItems(rows)
}

func (s *curStore) Cost30Days(ctx context.Context, region string) ([]store.ResourceCost, error) {
	from, until := s.trailingWindow(costWindowDays)
	query := fmt.Sprintf(`
		SELECT line_item_resource_id, line_item_currency_code, SUM(line_item_unblended_cost)
		FROM %s
		WHERE product_from_region_code = ?
		AND line_item_resource_id IS NOT NULL
		AND line_item_usage_end_date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		GROUP BY line_item_resource_id, line_item_currency_code
		ORDER BY line_item_resource_id, line_item_currency_code
		LIMIT ?`, tableName)
	rows, err := s.db.QueryContext(ctx, query, region, from, until, s.opts.GroupLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: 30-day cost: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return scanResourceCosts(rows)
}

func (s *curStore) TotalCostBetween(
	ctx context.Context,
	region string,
	from, until time.Time,
) ([]store.ResourceCost, error) {
	query := fmt.Sprintf(`
		SELECT line_item_resource_id, line_item_currency_code, SUM(line_item_unblended_cost)
		FROM %s
		WHERE product_from_region_code = ?
		AND line_item_resource_id IS NOT NULL
		AND line_item_usage_start_date >= CAST(? AS DATE)
		AND line_item_usage_end_date <= CAST(? AS DATE)
		GROUP BY line_item_resource_id, line_item_currency_code
		ORDER BY line_item_resource_id, line_item_currency_code`, tableName)
	rows, err := s.db.QueryContext(ctx, query, region, dateOnly(from), dateOnly(until))
	if err != nil {
		return nil, fmt.Errorf("%w: total cost between: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return scanResourceCosts(rows)
}

func (s *curStore) CostSummaryBetween(
	ctx context.Context,
	region string,
	from, until time.Time,
) (*store.CostSummary, error) {
	countsQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT line_item_usage_account_id), COUNT(*), COUNT(DISTINCT line_item_resource_id)
		FROM %s
		WHERE product_from_region_code = ?
		AND line_item_usage_start_date >= CAST(? AS DATE)
		AND line_item_usage_end_date <= CAST(? AS DATE)`, tableName)

	summary := &store.CostSummary{TotalCostByCurrency: map[string]float64{}}
	err := s.db.QueryRowContext(ctx, countsQuery, region, dateOnly(from), dateOnly(until)).
		Scan(&summary.Accounts, &summary.RowCount, &summary.Resources)
	if err != nil {
		return nil, fmt.Errorf("%w: summary counts: %v", ErrQueryFailed, err)
	}

	totalsQuery := fmt.Sprintf(`
		SELECT line_item_currency_code, SUM(line_item_unblended_cost)
		FROM %s
		WHERE product_from_region_code = ?
		AND line_item_usage_start_date >= CAST(? AS DATE)
		AND line_item_usage_end_date <= CAST(? AS DATE)
		GROUP BY line_item_currency_code`, tableName)
	rows, err := s.db.QueryContext(ctx, totalsQuery, region, dateOnly(from), dateOnly(until))
	if err != nil {
		return nil, fmt.Errorf("%w: summary totals: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var currency string
		var total float64
		if err := rows.Scan(&currency, &total); err != nil {
			return nil, fmt.Errorf("%w: scan summary total: %v", ErrQueryFailed, err)
		}
		summary.TotalCostByCurrency[currency] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: summary totals: %v", ErrQueryFailed, err)
	}
	return summary, nil
}

func (s *curStore) HasRecentDiscount(
	ctx context.Context,
	resourceID string,
	accountIDs []string,
) (bool, error) {
	if len(accountIDs) == 0 {
		return false, nil
	}
	from, until := s.trailingWindow(discountWindowDays)
	placeholders, args := inClause(accountIDs)
	query := fmt.Sprintf(`
		SELECT COUNT(*) > 0
		FROM %s
		WHERE line_item_line_item_type = 'DiscountedUsage'
		AND line_item_resource_id = ?
		AND line_item_usage_end_date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		AND line_item_usage_account_id IN (%s)`, tableName, placeholders)

	var found bool
	err := s.db.QueryRowContext(ctx, query, append([]any{resourceID, from, until}, args...)...).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("%w: discount probe: %v", ErrQueryFailed, err)
	}
	return found, nil
}

func (s *curStore) ResourceCost30Days(
	ctx context.Context,
	resourceID string,
	accountIDs []string,
) ([]store.ResourceCost, error) {
	if len(accountIDs) == 0 {
		return []store.ResourceCost{}, nil
	}
	from, until := s.trailingWindow(costWindowDays)
	placeholders, args := inClause(accountIDs)
	query := fmt.Sprintf(`
		SELECT line_item_resource_id, line_item_currency_code, SUM(line_item_unblended_cost)
		FROM %s
		WHERE line_item_resource_id = ?
		AND line_item_usage_end_date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		AND line_item_usage_account_id IN (%s)
		GROUP BY line_item_resource_id, line_item_currency_code
		ORDER BY line_item_currency_code`, tableName, placeholders)

	rows, err := s.db.QueryContext(ctx, query, append([]any{resourceID, from, until}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: cost probe: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	return scanResourceCosts(rows)
}

// LatestSnapshot returns the most recent row of a resource by usage end
// date, or nil when the resource has no matching row. Absence is not an
// error.
func (s *curStore) LatestSnapshot(
	ctx context.Context,
	resourceID string,
	accountIDs []string,
) (*store.ResourceSnapshot, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(accountIDs)
	query := fmt.Sprintf(`
		SELECT line_item_usage_account_id, product_instance_type, resourcename, platform,
			product_from_region_code, tenancy, term_in_months, resourcetype, uid, datasource,
			allupfront_hourlycost, allupfront_upfrontcharge, noupfront_hourlycost,
			noupfront_upfrontcharge, partialupfront_hourlycost, partialupfront_upfrontcharge
		FROM %s
		WHERE line_item_resource_id = ?
		AND line_item_usage_account_id IN (%s)
		ORDER BY line_item_usage_end_date DESC
		LIMIT 1`, tableName, placeholders)

	var (
		snap           store.ResourceSnapshot
		instanceType   sql.NullString
		name           sql.NullString
		platform       sql.NullString
		tenancy        sql.NullString
		termInMonths   sql.NullInt64
		resourceType   sql.NullString
		uid            sql.NullString
		datasource     sql.NullString
		allHourly      sql.NullFloat64
		allUpfront     sql.NullFloat64
		noHourly       sql.NullFloat64
		noUpfront      sql.NullFloat64
		partialHourly  sql.NullFloat64
		partialUpfront sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, query, append([]any{resourceID}, args...)...).Scan(
		&snap.AccountID, &instanceType, &name, &platform,
		&snap.Region, &tenancy, &termInMonths, &resourceType, &uid, &datasource,
		&allHourly, &allUpfront, &noHourly, &noUpfront, &partialHourly, &partialUpfront,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot probe: %v", ErrQueryFailed, err)
	}

	snap.InstanceType = stringPtr(instanceType)
	snap.Name = stringPtr(name)
	snap.Platform = stringPtr(platform)
	snap.Tenancy = stringPtr(tenancy)
	snap.TermInMonths = int64Ptr(termInMonths)
	snap.ResourceType = stringPtr(resourceType)
	snap.UID = stringPtr(uid)
	snap.Datasource = stringPtr(datasource)
	snap.AllUpfront = store.PricingPlan{HourlyCost: allHourly.Float64, UpfrontCharge: allUpfront.Float64}
	snap.NoUpfront = store.PricingPlan{HourlyCost: noHourly.Float64, UpfrontCharge: noUpfront.Float64}
	snap.PartialUpfront = store.PricingPlan{HourlyCost: partialHourly.Float64, UpfrontCharge: partialUpfront.Float64}
	return &snap, nil
}

// DiscoverIdentifiers collects the distinct resource and account ids over
// all rows where both are present. The two sets are independent unions, not
// pairs.
func (s *curStore) DiscoverIdentifiers(ctx context.Context) (*store.Identifiers, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT line_item_usage_account_id, line_item_resource_id
		FROM %s
		WHERE line_item_resource_id IS NOT NULL
		AND line_item_usage_account_id IS NOT NULL
		ORDER BY line_item_usage_account_id, line_item_resource_id`, tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: discover identifiers: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	ids := &store.Identifiers{}
	seenAccounts := map[string]bool{}
	seenResources := map[string]bool{}
	for rows.Next() {
		var account, resource string
		if err := rows.Scan(&account, &resource); err != nil {
			return nil, fmt.Errorf("%w: scan identifiers: %v", ErrQueryFailed, err)
		}
		if !seenAccounts[account] {
			seenAccounts[account] = true
			ids.AccountIDs = append(ids.AccountIDs, account)
		}
		if !seenResources[resource] {
			seenResources[resource] = true
			ids.ResourceIDs = append(ids.ResourceIDs, resource)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: discover identifiers: %v", ErrQueryFailed, err)
	}
	return ids, nil
}

// trailingWindow returns [today - days, today] as calendar dates, inclusive
// on both ends.
func (s *curStore) trailingWindow(days int) (string, string) {
	today := s.opts.Now()
	return dateOnly(today.AddDate(0, 0, -days)), dateOnly(today)
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}

func scanLineItems(rows *sql.Rows) ([]store.LineItem, error) {
	items := make([]store.LineItem, 0)
	for rows.Next() {
		var (
			item           store.LineItem
			resourceID     sql.NullString
			accountID      sql.NullString
			instanceType   sql.NullString
			name           sql.NullString
			platform       sql.NullString
			tenancy        sql.NullString
			termInMonths   sql.NullInt64
			resourceType   sql.NullString
			uid            sql.NullString
			datasource     sql.NullString
			allHourly      sql.NullFloat64
			allUpfront     sql.NullFloat64
			noHourly       sql.NullFloat64
			noUpfront      sql.NullFloat64
			partialHourly  sql.NullFloat64
			partialUpfront sql.NullFloat64
		)
		err := rows.Scan(
			&resourceID, &accountID, &item.Region,
			&item.UsageStart, &item.UsageEnd, &item.Cost,
			&item.Currency, &item.LineItemType, &instanceType, &name,
			&platform, &tenancy, &termInMonths, &resourceType, &uid, &datasource,
			&allHourly, &allUpfront, &noHourly, &noUpfront, &partialHourly, &partialUpfront,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan line item: %v", ErrQueryFailed, err)
		}
		item.ResourceID = stringPtr(resourceID)
		item.AccountID = stringPtr(accountID)
		item.InstanceType = stringPtr(instanceType)
		item.Name = stringPtr(name)
		item.Platform = stringPtr(platform)
		item.Tenancy = stringPtr(tenancy)
		item.TermInMonths = int64Ptr(termInMonths)
		item.ResourceType = stringPtr(resourceType)
		item.UID = stringPtr(uid)
		item.Datasource = stringPtr(datasource)
		item.AllUpfront = store.PricingPlan{HourlyCost: allHourly.Float64, UpfrontCharge: allUpfront.Float64}
		item.NoUpfront = store.PricingPlan{HourlyCost: noHourly.Float64, UpfrontCharge: noUpfront.Float64}
		item.PartialUpfront = store.PricingPlan{HourlyCost: partialHourly.Float64, UpfrontCharge: partialUpfront.Float64}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return items, nil
}

func scanResourceCosts(rows *sql.Rows) ([]store.ResourceCost, error) {
	costs := make([]store.ResourceCost, 0)
	for rows.Next() {
		var rc store.ResourceCost
		if err := rows.Scan(&rc.ResourceID, &rc.Currency, &rc.Cost); err != nil {
			return nil, fmt.Errorf("%w: scan cost group: %v", ErrQueryFailed, err)
		}
		costs = append(costs, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return costs, nil
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
