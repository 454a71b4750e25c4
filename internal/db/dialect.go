package db

import (
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of the underlying store.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// DialectFor picks the dialect from the DSN. URL DSNs with a postgres
// scheme and libpq key/value strings are Postgres; anything else is a
// SQLite file path.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	if isKeyValueDSN(lower) {
		return DialectPostgres
	}
	return DialectSQLite
}

var libpqKeys = map[string]bool{
	"host": true, "hostaddr": true, "port": true, "dbname": true,
	"user": true, "password": true, "sslmode": true,
}

func isKeyValueDSN(dsn string) bool {
	for _, field := range strings.Fields(dsn) {
		key, _, ok := strings.Cut(field, "=")
		if ok && libpqKeys[strings.TrimSpace(key)] {
			return true
		}
	}
	return false
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
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

// LikeOperator returns the case-insensitive pattern operator. SQLite's LIKE
// folds ASCII case only.
func (d Dialect) LikeOperator() string {
	if d == DialectPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// EnsureSSLMode appends sslmode=require to a Postgres DSN that does not set
// an sslmode. Other DSNs are returned unchanged.
func EnsureSSLMode(dsn string) string {
	if DialectFor(dsn) != DialectPostgres || strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if isKeyValueDSN(strings.ToLower(dsn)) && !strings.Contains(dsn, "://") {
		return strings.TrimSpace(dsn) + " sslmode=require"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "sslmode=require"
}
