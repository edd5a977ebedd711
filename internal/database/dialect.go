package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// Name is the value of DB_DRIVER that selects this dialect.
	Name string
	// Returning is true when inserts report the new id through RETURNING
	// instead of LastInsertId.
	Returning bool

	quote       byte
	numbered    bool
	autoID      string
	nowDefault  string
	timeColumn  string
	tableSuffix string
}

var (
	Postgres = Dialect{
		Driver:     "pgx",
		Name:       "postgres",
		Returning:  true,
		quote:      '"',
		numbered:   true,
		autoID:     "SERIAL PRIMARY KEY",
		nowDefault: "CURRENT_TIMESTAMP",
		timeColumn: "TIMESTAMPTZ",
	}
	MySQL = Dialect{
		Driver:      "mysql",
		Name:        "mysql",
		quote:       '`',
		autoID:      "INT AUTO_INCREMENT PRIMARY KEY",
		nowDefault:  "CURRENT_TIMESTAMP",
		timeColumn:  "DATETIME",
		tableSuffix: " ENGINE=InnoDB",
	}
	SQLite = Dialect{
		Driver:     "sqlite3",
		Name:       "sqlite3",
		quote:      '"',
		autoID:     "INTEGER PRIMARY KEY AUTOINCREMENT",
		nowDefault: "CURRENT_TIMESTAMP",
		timeColumn: "DATETIME",
	}
)

// LookupDialect returns the dialect registered under a DB_DRIVER value.
func LookupDialect(name string) (Dialect, error) {
	switch name {
	case Postgres.Name:
		return Postgres, nil
	case MySQL.Name:
		return MySQL, nil
	case SQLite.Name:
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("database: unsupported driver %q", name)
}

// Quote quotes an identifier; "user" is reserved in postgres and mysql.
func (d Dialect) Quote(ident string) string {
	q := string(d.quote)
	return q + ident + q
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// AutoID is the column definition of an auto-generated integer primary key.
func (d Dialect) AutoID() string { return d.autoID }

// Timestamp is a timestamp column defaulting to the insert time.
func (d Dialect) Timestamp() string { return d.timeColumn + " DEFAULT " + d.nowDefault }

// TableOptions is appended after the closing parenthesis of CREATE TABLE.
func (d Dialect) TableOptions() string { return d.tableSuffix }
