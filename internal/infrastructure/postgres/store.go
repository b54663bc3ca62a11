// Package postgres implements datastore.Store directly against PostgreSQL. Row-level security
// is not applied on this path: queries run with the privileges of the connection role.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/usampac/admin-web/internal/datastore"
)

// Store is a datastore.Store backed by sqlx.
type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

var (
	_ datastore.Store         = (*Store)(nil)
	_ datastore.Transactional = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection pool. Extra columns in SELECT * results are ignored.
func New(db *sqlx.DB) *Store {
	unsafe := db.Unsafe()
	return &Store{db: unsafe, ext: unsafe}
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Select(ctx context.Context, q datastore.Query, dest any) error {
	where, args := whereClause(q.Filters)
	query := "SELECT " + columnList(q.Columns) + " FROM " + tableName(q.Schema, q.Table) + where + orderClause(q.Orders)
	if q.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.Limit)
	}
	query, args, err := s.bind(query, args)
	if err != nil {
		return err
	}
	if q.Single {
		err := sqlx.GetContext(ctx, s.ext, dest, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			return datastore.ErrNoRows
		}
		return err
	}
	return sqlx.SelectContext(ctx, s.ext, dest, query, args...)
}

func (s *Store) Count(ctx context.Context, q datastore.Query) (int, error) {
	where, args := whereClause(q.Filters)
	query, args, err := s.bind("SELECT count(*) FROM "+tableName(q.Schema, q.Table)+where, args)
	if err != nil {
		return 0, err
	}
	var n int
	if err := sqlx.GetContext(ctx, s.ext, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// Insert creates one row and returns its id.
func (s *Store) Insert(ctx context.Context, schema, table string, payload datastore.Record) (string, error) {
	keys := sortedKeys(payload)
	if len(keys) == 0 {
		return "", fmt.Errorf("insert %s: empty payload", table)
	}
	cols := make([]string, 0, len(keys))
	marks := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, pq.QuoteIdentifier(k))
		marks = append(marks, "?")
		args = append(args, payload[k])
	}
	query := "INSERT INTO " + tableName(schema, table) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ") RETURNING id"
	query, args, err := s.bind(query, args)
	if err != nil {
		return "", err
	}
	var id string
	if err := sqlx.GetContext(ctx, s.ext, &id, query, args...); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, q datastore.Query, payload datastore.Record) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("update %s: refusing to update without a filter", q.Table)
	}
	keys := sortedKeys(payload)
	if len(keys) == 0 {
		return fmt.Errorf("update %s: empty payload", q.Table)
	}
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		sets = append(sets, pq.QuoteIdentifier(k)+" = ?")
		args = append(args, payload[k])
	}
	where, whereArgs := whereClause(q.Filters)
	query := "UPDATE " + tableName(q.Schema, q.Table) + " SET " + strings.Join(sets, ", ") + where
	return s.exec(ctx, query, append(args, whereArgs...))
}

func (s *Store) Delete(ctx context.Context, q datastore.Query) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("delete %s: refusing to delete without a filter", q.Table)
	}
	where, args := whereClause(q.Filters)
	return s.exec(ctx, "DELETE FROM "+tableName(q.Schema, q.Table)+where, args)
}

// RPC calls schema.fn with named arguments, mirroring PostgREST's /rpc convention.
func (s *Store) RPC(ctx context.Context, schema, fn string, params datastore.Record) error {
	keys := sortedKeys(params)
	named := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		named = append(named, pq.QuoteIdentifier(k)+" => ?")
		args = append(args, params[k])
	}
	query := "SELECT " + tableName(schema, fn) + "(" + strings.Join(named, ", ") + ")"
	return s.exec(ctx, query, args)
}

// InTx runs fn against a transaction-bound Store, committing when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(datastore.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Store{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, query string, args []any) error {
	query, args, err := s.bind(query, args)
	if err != nil {
		return err
	}
	_, err = s.ext.ExecContext(ctx, query, args...)
	return err
}

// bind expands IN (?) lists and rewrites placeholders to $n.
func (s *Store) bind(query string, args []any) (string, []any, error) {
	if hasList(args) {
		expanded, expandedArgs, err := sqlx.In(query, args...)
		if err != nil {
			return "", nil, fmt.Errorf("bind query: %w", err)
		}
		query, args = expanded, expandedArgs
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args, nil
}

func hasList(args []any) bool {
	for _, a := range args {
		if _, ok := a.([]any); ok {
			return true
		}
	}
	return false
}

func tableName(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

func columnList(columns string) string {
	columns = strings.TrimSpace(columns)
	if columns == "" || columns == "*" {
		return "*"
	}
	parts := strings.Split(columns, ",")
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			quoted = append(quoted, pq.QuoteIdentifier(p))
		}
	}
	return strings.Join(quoted, ", ")
}

func whereClause(filters []datastore.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		col := pq.QuoteIdentifier(f.Column)
		switch f.Op {
		case datastore.OpIn:
			if len(f.Values) == 0 {
				conds = append(conds, "FALSE")
				continue
			}
			conds = append(conds, col+" IN (?)")
			args = append(args, f.Values)
		default:
			conds = append(conds, col+" = ?")
			args = append(args, f.Value)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(orders []datastore.Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		dir := "DESC"
		if o.Ascending {
			dir = "ASC"
		}
		parts = append(parts, pq.QuoteIdentifier(o.Column)+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func sortedKeys(r datastore.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
