// Package datastore describes the table/procedure protocol the dashboard speaks to its backend.
// Implementations live under internal/infrastructure (PostgREST over HTTP, or Postgres directly).
package datastore

import (
	"context"
	"errors"
)

// ErrNoRows is returned by Select on a Single query that matched nothing.
var ErrNoRows = errors.New("no rows in result set")

// Record is a write payload keyed by column name. A nil value is written as NULL.
type Record map[string]any

// Store executes queries against the backend's tables and stored procedures.
type Store interface {
	Select(ctx context.Context, q Query, dest any) error
	Count(ctx context.Context, q Query) (int, error)
	Insert(ctx context.Context, schema, table string, payload Record) (string, error)
	Update(ctx context.Context, q Query, payload Record) error
	Delete(ctx context.Context, q Query) error
	RPC(ctx context.Context, schema, fn string, params Record) error
}

// Transactional is implemented by stores that can run several writes atomically.
type Transactional interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// Operator is a filter comparison.
type Operator string

const (
	OpEq Operator = "eq"
	OpIn Operator = "in"
)

// Filter restricts a query to rows whose Column matches Value (or one of Values for OpIn).
type Filter struct {
	Column string
	Op     Operator
	Value  any
	Values []any
}

// Order sorts results by Column.
type Order struct {
	Column    string
	Ascending bool
}

// Query is an immutable-by-convention description of a table read, update or delete.
type Query struct {
	Schema  string
	Table   string
	Columns string
	Filters []Filter
	Orders  []Order
	Limit   int
	Single  bool
}

// From starts a query on schema.table selecting every column.
func From(schema, table string) Query {
	return Query{Schema: schema, Table: table, Columns: "*"}
}

// Select replaces the selected column list.
func (q Query) Select(columns string) Query {
	q.Columns = columns
	return q
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Op: OpEq, Value: value})
	return q
}

// In adds a membership filter.
func (q Query) In(column string, values ...any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Op: OpIn, Values: values})
	return q
}

// Order appends a sort key.
func (q Query) Order(column string, ascending bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Ascending: ascending})
	return q
}

// WithLimit caps the number of returned rows. Zero means no limit.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// One expects exactly one row; dest must then be a pointer to a struct.
func (q Query) One() Query {
	q.Single = true
	return q
}

// Strings converts a string slice into filter values for In.
func Strings(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

type accessTokenKey struct{}

// WithAccessToken attaches the signed-in user's access token so row-level security applies
// to every query issued with the returned context.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken.
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}
