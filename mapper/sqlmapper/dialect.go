package sqlmapper

import (
	"fmt"
	"strings"
)

// Dialect abstracts the SQL flavor differences the mapper cares about.
type Dialect interface {
	// Placeholder returns the bind parameter for the nth (1-based) argument.
	Placeholder(n int) string
	// Quote quotes an identifier.
	Quote(ident string) string
	// Limit returns the LIMIT/OFFSET clause. A negative limit means no limit.
	Limit(limit, offset int) string
	// Returning returns true if INSERT ... RETURNING is supported.
	Returning() bool
}

var (
	// MySQL is the dialect of MySQL and MariaDB.
	MySQL Dialect = mysqlDialect{}
	// Postgres is the dialect of PostgreSQL.
	Postgres Dialect = postgresDialect{}
)

type mysqlDialect struct{}

func (mysqlDialect) Placeholder(n int) string {
	return "?"
}

func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) Limit(limit, offset int) string {
	switch {
	case limit < 0 && offset <= 0:
		return ""
	case limit < 0:
		// MySQL has no OFFSET without LIMIT.
		return fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", offset)
	case offset <= 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func (mysqlDialect) Returning() bool {
	return false
}

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (postgresDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresDialect) Limit(limit, offset int) string {
	s := ""
	if limit >= 0 {
		s = fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		s += fmt.Sprintf(" OFFSET %d", offset)
	}
	return s
}

func (postgresDialect) Returning() bool {
	return true
}

// DialectFor returns the dialect matching a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "pgx", "postgres":
		return Postgres, nil
	}
	return nil, fmt.Errorf("sqlmapper: unsupported driver %q", driver)
}
