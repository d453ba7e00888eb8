package repository

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// whereBuilder accumulates positional SQL predicates.
type whereBuilder struct {
	clauses []string
	args    []any
}

// add appends a predicate. expr refers to the new argument with %[1]d.
func (w *whereBuilder) add(expr string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(expr, len(w.args)))
}

func (w *whereBuilder) addIn(column string, values []any) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
// Wildcards typed by the caller match literally.
func searchPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// stamp returns t, or the current UTC time when t is zero.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
