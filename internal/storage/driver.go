package storage

import (
	"strconv"
	"strings"
)

// Driver identifies the relational store backing the ledger.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is supported
func (d Driver) IsValid() bool {
	switch d {
	case SQLite, Postgres:
		return true
	default:
		return false
	}
}

// sqlName is the database/sql driver name registered by the imported driver.
func (d Driver) sqlName() string {
	return string(d)
}

// rebind rewrites ? placeholders into the driver's native form.
func (d Driver) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
