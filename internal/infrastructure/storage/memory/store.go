// Package memory provides an in-memory transactional definition store.
// RunAtomic works on a copy of the state and swaps it in on success, so a
// failed unit leaves nothing behind. Used by tests and the offline CLI.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"customfields/internal/core/apperror"
	"customfields/internal/core/numerator"
	"customfields/internal/domain"
	"customfields/internal/domain/customfield"
)

type state struct {
	defs map[string]map[string]*customfield.Definition // tenant -> id -> definition
	seqs map[string]int64                              // tenant + "\x00" + key -> current
}

func newState() state {
	return state{
		defs: map[string]map[string]*customfield.Definition{},
		seqs: map[string]int64{},
	}
}

func (s state) clone() state {
	cp := state{
		defs: make(map[string]map[string]*customfield.Definition, len(s.defs)),
		seqs: make(map[string]int64, len(s.seqs)),
	}
	for tenantID, defs := range s.defs {
		m := make(map[string]*customfield.Definition, len(defs))
		for k, v := range defs {
			m[k] = v.Clone()
		}
		cp.defs[tenantID] = m
	}
	for k, v := range s.seqs {
		cp.seqs[k] = v
	}
	return cp
}

func (s *state) tenant(tenantID string) map[string]*customfield.Definition {
	m, ok := s.defs[tenantID]
	if !ok {
		m = map[string]*customfield.Definition{}
		s.defs[tenantID] = m
	}
	return m
}

// Store keeps definitions of all tenants in memory.
type Store struct {
	mu    sync.RWMutex
	state state
}

// Compile-time interface checks.
var (
	_ customfield.Store   = (*Store)(nil)
	_ numerator.Allocator = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

type txKey struct{ store *Store }

func (s *Store) txState(ctx context.Context) (*state, bool) {
	st, ok := ctx.Value(txKey{s}).(*state)
	return st, ok
}

// read runs fn against the transaction state in ctx or the committed state.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := s.txState(ctx); ok {
		return fn(st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.state)
}

// write is like read but takes the write lock outside transactions.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if st, ok := s.txState(ctx); ok {
		return fn(st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// RunAtomic serializes units of work. Nested calls join the outer unit.
func (s *Store) RunAtomic(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if _, ok := s.txState(ctx); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{s}, &working)); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Save implements customfield.Store.
func (s *Store) Save(ctx context.Context, tenantID string, d *customfield.Definition) (*customfield.Definition, error) {
	var out *customfield.Definition
	err := s.write(ctx, func(st *state) error {
		defs := st.tenant(tenantID)
		if _, exists := defs[d.ID]; exists {
			return apperror.NewConflict(fmt.Sprintf("Custom field %s already exists", d.ID))
		}
		if err := checkUnique(defs, d); err != nil {
			return err
		}
		defs[d.ID] = d.Clone()
		out = d.Clone()
		return nil
	})
	return out, err
}

// FindByID implements customfield.Store.
func (s *Store) FindByID(ctx context.Context, tenantID, id string) (*customfield.Definition, error) {
	var out *customfield.Definition
	err := s.read(ctx, func(st *state) error {
		d, ok := st.defs[tenantID][id]
		if !ok {
			return apperror.NewNotFound(customfield.EntityName, id)
		}
		out = d.Clone()
		return nil
	})
	return out, err
}

// FindAll implements customfield.Store.
func (s *Store) FindAll(ctx context.Context, tenantID string) ([]*customfield.Definition, error) {
	var out []*customfield.Definition
	err := s.read(ctx, func(st *state) error {
		out = sortedClones(st.defs[tenantID], "order")
		return nil
	})
	return out, err
}

// FindByFilter implements customfield.Store.
func (s *Store) FindByFilter(ctx context.Context, tenantID string, f domain.ListFilter) ([]*customfield.Definition, int64, error) {
	matchers, err := compileFilter(f)
	if err != nil {
		return nil, 0, err
	}
	if f.OrderBy != "" {
		if _, ok := fields[strings.TrimPrefix(f.OrderBy, "-")]; !ok {
			return nil, 0, apperror.NewValidation(fmt.Sprintf("Unsupported orderBy field: %s", f.OrderBy))
		}
	}

	var (
		page  []*customfield.Definition
		total int64
	)
	err = s.read(ctx, func(st *state) error {
		all := sortedClones(st.defs[tenantID], f.OrderBy)
		matched := all[:0]
		for _, d := range all {
			if matchAll(d, matchers) {
				matched = append(matched, d)
			}
		}
		total = int64(len(matched))

		from := min(f.Offset, len(matched))
		to := len(matched)
		if f.Limit > 0 {
			to = min(from+f.Limit, len(matched))
		}
		page = matched[from:to]
		return nil
	})
	return page, total, err
}

// MaxOrder implements customfield.Store.
func (s *Store) MaxOrder(ctx context.Context, tenantID string) (int, error) {
	var maxOrder int
	err := s.read(ctx, func(st *state) error {
		for _, d := range st.defs[tenantID] {
			maxOrder = max(maxOrder, d.Order)
		}
		return nil
	})
	return maxOrder, err
}

// MaxRefIDSuffix implements customfield.Store.
func (s *Store) MaxRefIDSuffix(ctx context.Context, tenantID, slug string) (int64, error) {
	var maxSuffix int64
	err := s.read(ctx, func(st *state) error {
		for _, d := range st.defs[tenantID] {
			if n, ok := customfield.RefIDSuffix(d.RefID, slug); ok {
				maxSuffix = max(maxSuffix, n)
			}
		}
		return nil
	})
	return maxSuffix, err
}

// Update implements customfield.Store.
func (s *Store) Update(ctx context.Context, tenantID string, d *customfield.Definition) (bool, error) {
	applied := false
	err := s.write(ctx, func(st *state) error {
		defs := st.tenant(tenantID)
		if _, ok := defs[d.ID]; !ok {
			return nil
		}
		if err := checkUnique(defs, d); err != nil {
			return err
		}
		defs[d.ID] = d.Clone()
		applied = true
		return nil
	})
	return applied, err
}

// Delete implements customfield.Store.
func (s *Store) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	applied := false
	err := s.write(ctx, func(st *state) error {
		defs := st.tenant(tenantID)
		if _, ok := defs[id]; ok {
			delete(defs, id)
			applied = true
		}
		return nil
	})
	return applied, err
}

// Next implements numerator.Allocator on the store state, so allocations
// made inside RunAtomic are rolled back with it.
func (s *Store) Next(ctx context.Context, tenantID, key string, floor int64) (int64, error) {
	var n int64
	err := s.write(ctx, func(st *state) error {
		k := tenantID + "\x00" + key
		n = max(st.seqs[k], floor) + 1
		st.seqs[k] = n
		return nil
	})
	return n, err
}

// Reserve implements numerator.Allocator.
func (s *Store) Reserve(ctx context.Context, tenantID, key string, floor int64) error {
	return s.write(ctx, func(st *state) error {
		k := tenantID + "\x00" + key
		st.seqs[k] = max(st.seqs[k], floor)
		return nil
	})
}

// checkUnique mirrors the UNIQUE (tenant_id, ref_id) constraint.
// Order uniqueness is deferred in PostgreSQL and not checked per statement.
func checkUnique(defs map[string]*customfield.Definition, d *customfield.Definition) error {
	if d.RefID == "" {
		return nil
	}
	for id, other := range defs {
		if id != d.ID && other.RefID == d.RefID {
			return apperror.NewConflict(fmt.Sprintf("Custom field with refId %s already exists", d.RefID)).
				WithDetail("refId", d.RefID)
		}
	}
	return nil
}

// --- filtering and ordering ---

type fieldGetter func(d *customfield.Definition) any

// fields lists filterable and sortable fields by their API names.
var fields = map[string]fieldGetter{
	"id":            func(d *customfield.Definition) any { return d.ID },
	"name":          func(d *customfield.Definition) any { return d.Name },
	"ref_id":        func(d *customfield.Definition) any { return d.RefID },
	"type":          func(d *customfield.Definition) any { return string(d.Type) },
	"entity_type":   func(d *customfield.Definition) any { return d.EntityType },
	"order":         func(d *customfield.Definition) any { return d.Order },
	"help_text":     func(d *customfield.Definition) any { return d.HelpText },
	"required":      func(d *customfield.Definition) any { return d.Required },
	"visible":       func(d *customfield.Definition) any { return d.Visible },
	"is_repeatable": func(d *customfield.Definition) any { return d.IsRepeatable },
}

func sortedClones(defs map[string]*customfield.Definition, orderBy string) []*customfield.Definition {
	out := make([]*customfield.Definition, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Clone())
	}

	desc := strings.HasPrefix(orderBy, "-")
	get, custom := fields[strings.TrimPrefix(orderBy, "-")]

	sort.SliceStable(out, func(i, j int) bool {
		if custom {
			if c := compare(get(out[i]), get(out[j])); c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type matcher func(d *customfield.Definition) bool

func compileFilter(f domain.ListFilter) ([]matcher, error) {
	var ms []matcher

	if f.EntityType != "" {
		ms = append(ms, func(d *customfield.Definition) bool { return d.EntityType == f.EntityType })
	}
	if len(f.IDs) > 0 {
		ids := make(map[string]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = struct{}{}
		}
		ms = append(ms, func(d *customfield.Definition) bool {
			_, ok := ids[d.ID]
			return ok
		})
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		ms = append(ms, func(d *customfield.Definition) bool {
			return strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.RefID), q)
		})
	}

	for _, item := range f.AdvancedFilters {
		if err := item.Validate(); err != nil {
			return nil, apperror.NewValidation(err.Error())
		}
		get, ok := fields[item.Field]
		if !ok {
			return nil, apperror.NewValidation(fmt.Sprintf("Unsupported filter field: %s", item.Field))
		}
		m, err := itemMatcher(get, item)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

func matchAll(d *customfield.Definition, ms []matcher) bool {
	for _, m := range ms {
		if !m(d) {
			return false
		}
	}
	return true
}
