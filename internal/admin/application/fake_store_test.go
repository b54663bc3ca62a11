package application

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/usampac/admin-web/internal/datastore"
)

type storeCall struct {
	Method  string
	Query   datastore.Query
	Table   string
	Payload datastore.Record
	Fn      string
}

// fakeStore records calls and serves canned rows keyed by table.
type fakeStore struct {
	mu      sync.Mutex
	calls   []storeCall
	rows    map[string]any
	counts  map[string]int
	errs    map[string]error
	callErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    map[string]any{},
		counts:  map[string]int{},
		errs:    map[string]error{},
		callErr: map[string]error{},
	}
}

func (f *fakeStore) add(c storeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeStore) Calls() []storeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storeCall(nil), f.calls...)
}

func (f *fakeStore) Select(_ context.Context, q datastore.Query, dest any) error {
	f.add(storeCall{Method: "select", Query: q, Table: q.Table})
	if err := f.errs[q.Table]; err != nil {
		return err
	}
	rows, ok := f.rows[q.Table]
	if !ok {
		if q.Single {
			return datastore.ErrNoRows
		}
		return nil
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dest)
}

func (f *fakeStore) Count(_ context.Context, q datastore.Query) (int, error) {
	f.add(storeCall{Method: "count", Query: q, Table: q.Table})
	if err := f.errs[q.Table]; err != nil {
		return 0, err
	}
	key := q.Table
	for _, flt := range q.Filters {
		key += ":" + flt.Value.(string)
	}
	return f.counts[key], nil
}

func (f *fakeStore) Insert(_ context.Context, _ string, table string, payload datastore.Record) (string, error) {
	f.add(storeCall{Method: "insert", Table: table, Payload: payload})
	if err := f.callErr["insert:"+table]; err != nil {
		return "", err
	}
	return "new-" + table, nil
}

func (f *fakeStore) Update(_ context.Context, q datastore.Query, payload datastore.Record) error {
	f.add(storeCall{Method: "update", Query: q, Table: q.Table, Payload: payload})
	return f.callErr["update:"+q.Table]
}

func (f *fakeStore) Delete(_ context.Context, q datastore.Query) error {
	f.add(storeCall{Method: "delete", Query: q, Table: q.Table})
	return f.callErr["delete:"+q.Table]
}

func (f *fakeStore) RPC(_ context.Context, _ string, fn string, params datastore.Record) error {
	f.add(storeCall{Method: "rpc", Fn: fn, Payload: params})
	return f.callErr["rpc:"+fn]
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (a *fakeAudit) Record(_ context.Context, e AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return a.err
}

type fakeNotifier struct {
	mu        sync.Mutex
	decisions []Decision
	err       error
}

func (n *fakeNotifier) NotifyDecision(_ context.Context, d Decision) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decisions = append(n.decisions, d)
	return n.err
}

func (n *fakeNotifier) Decisions() []Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Decision(nil), n.decisions...)
}
