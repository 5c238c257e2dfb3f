package repositories

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL differences between the Postgres and SQLite stores.
type Dialect struct {
	Name string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder func(n int) string
	// Like is the case-insensitive pattern operator.
	Like string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Like:        "ILIKE",
	}
	Sqlite = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		// LIKE is case-insensitive for ASCII only in SQLite.
		Like: "LIKE",
	}
)

// argList accumulates bind arguments and hands out matching placeholders.
type argList struct {
	d    Dialect
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return a.d.Placeholder(len(a.args))
}

// containsPattern builds a LIKE pattern matching s anywhere, with wildcards in s escaped.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
