package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"customfields/internal/core/apperror"
	"customfields/internal/domain"
	"customfields/internal/domain/customfield"
	"customfields/internal/domain/filter"
)

const definitionsTable = "custom_fields"

var definitionColumns = ExtractDBColumns[definitionRow]()

// filterColumns whitelists filterable and sortable fields by their API names.
// Values are SQL expressions, never user input.
var filterColumns = map[string]string{
	"id":            "id",
	"name":          "name",
	"ref_id":        "ref_id",
	"type":          "type",
	"entity_type":   "entity_type",
	"order":         "sort_order",
	"help_text":     "definition->>'helpText'",
	"required":      "(definition->>'required')::boolean",
	"visible":       "(definition->>'visible')::boolean",
	"is_repeatable": "(definition->>'isRepeatable')::boolean",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// definitionRow is the custom_fields row shape.
type definitionRow struct {
	ID         string    `db:"id"`
	RefID      string    `db:"ref_id"`
	Name       string    `db:"name"`
	SortOrder  int       `db:"sort_order"`
	EntityType string    `db:"entity_type"`
	Type       string    `db:"type"`
	Definition []byte    `db:"definition"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// definitionWrite holds the columns written on insert and update.
type definitionWrite struct {
	RefID      string `db:"ref_id"`
	Name       string `db:"name"`
	SortOrder  int    `db:"sort_order"`
	EntityType string `db:"entity_type"`
	Type       string `db:"type"`
	Definition []byte `db:"definition"`
}

func newDefinitionWrite(d *customfield.Definition, body []byte) definitionWrite {
	return definitionWrite{
		RefID:      d.RefID,
		Name:       d.Name,
		SortOrder:  d.Order,
		EntityType: d.EntityType,
		Type:       string(d.Type),
		Definition: body,
	}
}

func (r definitionRow) toDefinition() (*customfield.Definition, error) {
	d := &customfield.Definition{}
	if err := json.Unmarshal(r.Definition, d); err != nil {
		return nil, fmt.Errorf("decode definition %s: %w", r.ID, err)
	}
	// Columns are authoritative for the keys they index.
	d.ID = r.ID
	d.RefID = r.RefID
	d.Name = r.Name
	d.Order = r.SortOrder
	d.EntityType = r.EntityType
	d.Type = customfield.FieldType(r.Type)
	return d, nil
}

// CustomFieldStore implements customfield.Store on PostgreSQL.
// Tenants share the tables; every statement is scoped by tenant_id.
type CustomFieldStore struct {
	txm *TxManager
}

var _ customfield.Store = (*CustomFieldStore)(nil)

// NewCustomFieldStore creates a definition store.
func NewCustomFieldStore(txm *TxManager) *CustomFieldStore {
	return &CustomFieldStore{txm: txm}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (s *CustomFieldStore) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// RunAtomic runs fn in a SERIALIZABLE transaction. Nested calls join it.
func (s *CustomFieldStore) RunAtomic(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return MapError("run atomic", s.txm.RunSerializable(ctx, fn))
}

// Save implements customfield.Store.
func (s *CustomFieldStore) Save(ctx context.Context, tenantID string, d *customfield.Definition) (*customfield.Definition, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}

	values := StructToMap(newDefinitionWrite(d, body))
	values["id"] = d.ID
	values["tenant_id"] = tenantID

	q := s.Builder().
		Insert(definitionsTable).
		SetMap(values)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, MapError("insert custom field", err)
	}
	return d.Clone(), nil
}

// FindByID implements customfield.Store.
func (s *CustomFieldStore) FindByID(ctx context.Context, tenantID, id string) (*customfield.Definition, error) {
	q := s.baseSelect(tenantID).
		Where(squirrel.Eq{"id": id}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row definitionRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(customfield.EntityName, id)
		}
		return nil, MapError("get custom field", err)
	}
	return row.toDefinition()
}

// FindAll implements customfield.Store.
func (s *CustomFieldStore) FindAll(ctx context.Context, tenantID string) ([]*customfield.Definition, error) {
	q := s.baseSelect(tenantID).OrderBy("sort_order ASC", "id ASC")
	return s.selectDefinitions(ctx, q)
}

// FindByFilter implements customfield.Store.
// Count and page are read in one read-only transaction so they agree.
func (s *CustomFieldStore) FindByFilter(ctx context.Context, tenantID string, f domain.ListFilter) ([]*customfield.Definition, int64, error) {
	q, err := s.filteredSelect(tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := parseOrderBy(f.OrderBy)
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := s.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	q = q.OrderBy(orderBy...)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	var (
		items []*customfield.Definition
		total int64
	)
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if err := s.txm.GetQuerier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return MapError("count custom fields", err)
		}
		page, err := s.selectDefinitions(ctx, q)
		items = page
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MaxOrder implements customfield.Store.
func (s *CustomFieldStore) MaxOrder(ctx context.Context, tenantID string) (int, error) {
	sql, args, err := s.Builder().
		Select("COALESCE(MAX(sort_order), 0)").
		From(definitionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var maxOrder int
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&maxOrder); err != nil {
		return 0, MapError("max order", err)
	}
	return maxOrder, nil
}

// MaxRefIDSuffix implements customfield.Store.
// Suffixes are parsed in Go so absurdly long numerals cannot overflow the query.
func (s *CustomFieldStore) MaxRefIDSuffix(ctx context.Context, tenantID, slug string) (int64, error) {
	sql, args, err := refIDsQuery(s.Builder(), tenantID, slug).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var refIDs []string
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &refIDs, sql, args...); err != nil {
		return 0, MapError("max refId suffix", err)
	}

	var maxSuffix int64
	for _, refID := range refIDs {
		if n, ok := customfield.RefIDSuffix(refID, slug); ok {
			maxSuffix = max(maxSuffix, n)
		}
	}
	return maxSuffix, nil
}

// Update implements customfield.Store.
func (s *CustomFieldStore) Update(ctx context.Context, tenantID string, d *customfield.Definition) (bool, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("encode definition: %w", err)
	}

	values := StructToMap(newDefinitionWrite(d, body))
	values["updated_at"] = squirrel.Expr("now()")

	q := s.Builder().
		Update(definitionsTable).
		SetMap(values).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": d.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, MapError("update custom field", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete implements customfield.Store.
func (s *CustomFieldStore) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	sql, args, err := s.Builder().
		Delete(definitionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, MapError("delete custom field", err)
	}
	return tag.RowsAffected() > 0, nil
}

// --- query building ---

func (s *CustomFieldStore) baseSelect(tenantID string) squirrel.SelectBuilder {
	return s.Builder().
		Select(definitionColumns...).
		From(definitionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

func (s *CustomFieldStore) selectDefinitions(ctx context.Context, q squirrel.SelectBuilder) ([]*customfield.Definition, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []definitionRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, MapError("select custom fields", err)
	}

	out := make([]*customfield.Definition, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDefinition()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// filteredSelect applies every ListFilter condition except paging and ordering.
func (s *CustomFieldStore) filteredSelect(tenantID string, f domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := s.baseSelect(tenantID)

	if f.EntityType != "" {
		q = q.Where(squirrel.Eq{"entity_type": f.EntityType})
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"ref_id": pattern},
		})
	}
	return applyAdvancedFilters(q, f.AdvancedFilters)
}

// applyAdvancedFilters applies client filters against the column whitelist.
func applyAdvancedFilters(q squirrel.SelectBuilder, items []filter.Item) (squirrel.SelectBuilder, error) {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return q, apperror.NewValidation(err.Error())
		}
		col, ok := filterColumns[item.Field]
		if !ok {
			return q, apperror.NewValidation(fmt.Sprintf("Unsupported filter field: %s", item.Field))
		}

		switch item.Operator {
		case filter.Equal, filter.InList:
			q = q.Where(squirrel.Eq{col: item.Value})
		case filter.NotEqual, filter.NotInList:
			q = q.Where(squirrel.NotEq{col: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{col: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{col: item.Value})
		case filter.Less:
			q = q.Where(squirrel.Lt{col: item.Value})
		case filter.Greater:
			q = q.Where(squirrel.Gt{col: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{col: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{col: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{col + "::text": containsPattern(item.Value)})
		case filter.NotContains:
			q = q.Where(squirrel.NotILike{col + "::text": containsPattern(item.Value)})
		}
	}
	return q, nil
}

func containsPattern(v any) string {
	return "%" + likeEscaper.Replace(fmt.Sprint(v)) + "%"
}

// parseOrderBy turns "field" or "-field" into ORDER BY terms ending in the
// sort_order, id tie-break.
func parseOrderBy(orderBy string) ([]string, error) {
	tieBreak := []string{"sort_order ASC", "id ASC"}
	if orderBy == "" {
		return tieBreak, nil
	}

	dir := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		field = orderBy[1:]
	}
	col, ok := filterColumns[field]
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("Unsupported orderBy field: %s", orderBy))
	}

	switch col {
	case "sort_order":
		return []string{"sort_order " + dir, "id ASC"}, nil
	case "id":
		return []string{"id " + dir}, nil
	}
	return append([]string{col + " " + dir}, tieBreak...), nil
}

func refIDsQuery(b squirrel.StatementBuilderType, tenantID, slug string) squirrel.SelectBuilder {
	return b.Select("ref_id").
		From(definitionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where("ref_id ~ ?", "^"+regexp.QuoteMeta(slug)+"_[0-9]+$")
}
