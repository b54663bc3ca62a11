package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/usampac/admin-web/internal/datastore"
)

const codeNoRows = "PGRST116"

// Store implements datastore.Store over PostgREST.
type Store struct {
	client *Client
}

var _ datastore.Store = (*Store)(nil)

// NewStore binds a Store to client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Select decodes the matching rows into dest (a slice pointer, or a struct pointer for single queries).
func (s *Store) Select(ctx context.Context, q datastore.Query, dest any) error {
	header := profileHeader(http.MethodGet, q.Schema)
	if q.Single {
		header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	res, err := s.client.do(ctx, http.MethodGet, s.tableURL(q, true), nil, header)
	if err != nil {
		var apiErr *Error
		if q.Single && errors.As(err, &apiErr) && apiErr.Code == codeNoRows {
			return datastore.ErrNoRows
		}
		return err
	}
	if err := json.Unmarshal(res.body, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", q.Table, err)
	}
	return nil
}

// Count issues a HEAD request with an exact count preference and reads the total from Content-Range.
func (s *Store) Count(ctx context.Context, q datastore.Query) (int, error) {
	header := profileHeader(http.MethodHead, q.Schema)
	header.Set("Prefer", "count=exact")
	res, err := s.client.do(ctx, http.MethodHead, s.tableURL(q, true), nil, header)
	if err != nil {
		return 0, err
	}
	return parseContentRange(res.header.Get("Content-Range"))
}

// Insert creates one row and returns its id.
func (s *Store) Insert(ctx context.Context, schema, table string, payload datastore.Record) (string, error) {
	header := profileHeader(http.MethodPost, schema)
	header.Set("Prefer", "return=representation")
	res, err := s.client.do(ctx, http.MethodPost, s.client.restURL+"/"+url.PathEscape(table)+"?select=id", payload, header)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(res.body, "0.id").String(), nil
}

// Update patches every row matched by q.
func (s *Store) Update(ctx context.Context, q datastore.Query, payload datastore.Record) error {
	header := profileHeader(http.MethodPatch, q.Schema)
	header.Set("Prefer", "return=minimal")
	_, err := s.client.do(ctx, http.MethodPatch, s.tableURL(q, false), payload, header)
	return err
}

// Delete removes every row matched by q.
func (s *Store) Delete(ctx context.Context, q datastore.Query) error {
	header := profileHeader(http.MethodDelete, q.Schema)
	header.Set("Prefer", "return=minimal")
	_, err := s.client.do(ctx, http.MethodDelete, s.tableURL(q, false), nil, header)
	return err
}

// RPC invokes a Postgres function with named parameters.
func (s *Store) RPC(ctx context.Context, schema, fn string, params datastore.Record) error {
	if params == nil {
		params = datastore.Record{}
	}
	header := profileHeader(http.MethodPost, schema)
	_, err := s.client.do(ctx, http.MethodPost, s.client.restURL+"/rpc/"+url.PathEscape(fn), params, header)
	return err
}

func (s *Store) tableURL(q datastore.Query, read bool) string {
	params := make([]string, 0, len(q.Filters)+3)
	if read && q.Columns != "" {
		params = append(params, "select="+url.QueryEscape(q.Columns))
	}
	for _, f := range q.Filters {
		params = append(params, url.QueryEscape(f.Column)+"="+url.QueryEscape(filterValue(f)))
	}
	if len(q.Orders) > 0 {
		orders := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			orders = append(orders, o.Column+"."+dir)
		}
		params = append(params, "order="+url.QueryEscape(strings.Join(orders, ",")))
	}
	if read && q.Limit > 0 {
		params = append(params, "limit="+strconv.Itoa(q.Limit))
	}

	endpoint := s.client.restURL + "/" + url.PathEscape(q.Table)
	if len(params) > 0 {
		endpoint += "?" + strings.Join(params, "&")
	}
	return endpoint
}

func filterValue(f datastore.Filter) string {
	switch f.Op {
	case datastore.OpIn:
		quoted := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			quoted = append(quoted, quoteListItem(fmt.Sprint(v)))
		}
		return "in.(" + strings.Join(quoted, ",") + ")"
	default:
		return string(f.Op) + "." + fmt.Sprint(f.Value)
	}
}

// quoteListItem wraps a value in double quotes so reserved characters inside in.(...) lists
// are taken literally.
func quoteListItem(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func profileHeader(method, schema string) http.Header {
	header := http.Header{}
	if schema == "" {
		return header
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		header.Set("Accept-Profile", schema)
	default:
		header.Set("Content-Profile", schema)
	}
	return header
}

// parseContentRange reads the total from "0-9/42" or "*/0".
func parseContentRange(value string) (int, error) {
	idx := strings.LastIndex(value, "/")
	if idx < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", value)
	}
	total := value[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("count not available in Content-Range %q", value)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Range %q: %w", value, err)
	}
	return n, nil
}
