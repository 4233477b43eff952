package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"talent-match/internal/database"
)

// fakeDB answers Query with the rows registered for the first matching
// substring of the SQL text.
type fakeDB struct {
	results []fakeResult
	queries []string
	args    [][]any
}

type fakeResult struct {
	match string
	rows  [][]any
	err   error
}

func (f *fakeDB) on(match string, rows ...[]any) *fakeDB {
	f.results = append(f.results, fakeResult{match: match, rows: rows})
	return f
}

func (f *fakeDB) fail(match string, err error) *fakeDB {
	f.results = append(f.results, fakeResult{match: match, err: err})
	return f
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close() error               { return nil }

func (f *fakeDB) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errors.New("not supported")
}

func (f *fakeDB) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	for _, r := range f.results {
		if strings.Contains(query, r.match) {
			if r.err != nil {
				return nil, r.err
			}
			return &fakeRows{rows: r.rows, pos: -1}, nil
		}
	}
	return &fakeRows{pos: -1}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) database.Row {
	return fakeRow{err: errors.New("not supported")}
}

func (f *fakeDB) Begin(context.Context) (database.Tx, error) {
	return nil, errors.New("not supported")
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: expected %d columns, got %d", len(dest), len(row))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(row[i])
		if target.Kind() == reflect.Pointer && v.Type() == target.Type().Elem() {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			target.Set(p)
			continue
		}
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan column %d: cannot assign %s to %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

var _ database.DB = (*fakeDB)(nil)
