// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: catalog.go — static attribute catalog bootstrap
//
// Loads the set of attributes the mock host knows about from a SQLite
// database: read once at startup, not persisted state.
// ─────────────────────────────────────────────────────────────────────────────

package main

import (
	"database/sql"

	"aggregate/hostapi"

	_ "github.com/mattn/go-sqlite3"
)

func openCatalog(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}

// loadAttributeCatalog registers every row of the catalog's attributes
// table against reg and returns the resulting Attribute handles in
// catalog order.
func loadAttributeCatalog(db *sql.DB, reg *hostapi.Registry) ([]hostapi.Attribute, error) {
	rows, err := db.Query(`SELECT name, type FROM attributes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs []hostapi.Attribute
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		attrs = append(attrs, reg.Create(name, parseValueType(typ)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func parseValueType(s string) hostapi.ValueType {
	switch s {
	case "int64":
		return hostapi.TypeInt64
	case "uint64":
		return hostapi.TypeUint64
	case "double":
		return hostapi.TypeDouble
	case "bool":
		return hostapi.TypeBool
	default:
		return hostapi.TypeString
	}
}
