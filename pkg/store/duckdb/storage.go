package duckdb

import (
	"database/sql"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

type Settings struct {
	DbPath string
}

// NewDB opens (or creates) the DuckDB database file. The cost-and-usage
// table itself is materialized later from the source export, so no boot
// queries run here.
func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), nil)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %q: %w", settings.DbPath, err)
	}

	return sql.OpenDB(c), nil
}
