package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Filter values use an operator-prefixed convention:
//
//	"eq.x"       column = x
//	"neq.x"      column <> x
//	"in.a,b,c"   column IN (a, b, c)
//	"is.null"    column IS NULL
//	"is.notnull" column IS NOT NULL
//
// A bare value is treated as eq. Column names are restricted to plain
// identifiers; anything else is rejected before it reaches SQL.
var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// BuildFilterSQL compiles a filter map into a WHERE fragment plus args.
// Keys are processed in sorted order so the generated SQL is deterministic.
func BuildFilterSQL(filters map[string]string) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	columns := make([]string, 0, len(filters))
	for col := range filters {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	conj := sq.And{}
	for _, col := range columns {
		if !columnPattern.MatchString(col) {
			return "", nil, fmt.Errorf("invalid filter column %q", col)
		}
		raw := filters[col]

		switch {
		case raw == "is.null":
			conj = append(conj, sq.Eq{col: nil})
		case raw == "is.notnull":
			conj = append(conj, sq.NotEq{col: nil})
		case strings.HasPrefix(raw, "eq."):
			conj = append(conj, sq.Eq{col: strings.TrimPrefix(raw, "eq.")})
		case strings.HasPrefix(raw, "neq."):
			conj = append(conj, sq.NotEq{col: strings.TrimPrefix(raw, "neq.")})
		case strings.HasPrefix(raw, "in."):
			values := strings.Split(strings.TrimPrefix(raw, "in."), ",")
			vals := make([]interface{}, 0, len(values))
			for _, v := range values {
				vals = append(vals, v)
			}
			conj = append(conj, sq.Eq{col: vals})
		default:
			conj = append(conj, sq.Eq{col: raw})
		}
	}

	sqlStr, args, err := conj.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build filter SQL: %w", err)
	}
	return sqlStr, args, nil
}
