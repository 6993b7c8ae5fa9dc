package source

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/godeepar/tsgeojson/record"
)

// LoadSQLite reads one record per row of a table, or of query when it is
// set. Column storage classes map onto value kinds: INTEGER, REAL, TEXT and
// NULL become integer, double, string and absent.
func LoadSQLite(path string, table string, query string, idProperty string) ([]record.Record, error) {
	if query == "" {
		if table == "" {
			return nil, errors.New("a sqlite source needs a table or a query")
		}
		query = "SELECT * FROM " + quoteIdent(table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %v", query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []record.Record
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		ts := record.NewTimeSeries("")
		for i, name := range columns {
			ts.Set(name, record.FromInterface(values[i]))
		}
		identify(ts, idProperty, len(records)+1)
		records = append(records, ts)
	}

	return records, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
