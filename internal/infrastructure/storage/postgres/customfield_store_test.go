package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customfields/internal/core/apperror"
	"customfields/internal/domain"
	"customfields/internal/domain/filter"
)

const selectPrefix = "SELECT id, ref_id, name, sort_order, entity_type, type, definition, created_at, updated_at FROM custom_fields WHERE tenant_id = $1"

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	store := NewCustomFieldStore(nil)

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "order greater",
			item:     filter.Item{Field: "order", Operator: filter.Greater, Value: 3},
			wantSQL:  selectPrefix + " AND sort_order > $2",
			wantArgs: []any{"t1", 3},
		},
		{
			name:     "json boolean",
			item:     filter.Item{Field: "required", Operator: filter.Equal, Value: true},
			wantSQL:  selectPrefix + " AND (definition->>'required')::boolean = $2",
			wantArgs: []any{"t1", true},
		},
		{
			name:     "in list",
			item:     filter.Item{Field: "type", Operator: filter.InList, Value: []string{"RADIO_BUTTON", "SINGLE_CHECKBOX"}},
			wantSQL:  selectPrefix + " AND type IN ($2,$3)",
			wantArgs: []any{"t1", "RADIO_BUTTON", "SINGLE_CHECKBOX"},
		},
		{
			name:     "is null",
			item:     filter.Item{Field: "help_text", Operator: filter.IsNull},
			wantSQL:  selectPrefix + " AND definition->>'helpText' IS NULL",
			wantArgs: []any{"t1"},
		},
		{
			name:     "contains escapes wildcards",
			item:     filter.Item{Field: "name", Operator: filter.Contains, Value: "50%_off"},
			wantSQL:  selectPrefix + " AND name::text ILIKE $2",
			wantArgs: []any{"t1", `%50\%\_off%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := applyAdvancedFilters(store.baseSelect("t1"), []filter.Item{tt.item})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestApplyAdvancedFilters_Rejects(t *testing.T) {
	store := NewCustomFieldStore(nil)

	tests := []struct {
		name string
		item filter.Item
	}{
		{"unknown column", filter.Item{Field: "tenant_id", Operator: filter.Equal, Value: "x"}},
		{"injection attempt", filter.Item{Field: "name; DROP TABLE custom_fields", Operator: filter.Equal, Value: "x"}},
		{"unknown operator", filter.Item{Field: "name", Operator: "regex", Value: "x"}},
		{"missing value", filter.Item{Field: "name", Operator: filter.Equal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyAdvancedFilters(store.baseSelect("t1"), []filter.Item{tt.item})
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestFilteredSelect_SearchAndEntityType(t *testing.T) {
	store := NewCustomFieldStore(nil)

	q, err := store.filteredSelect("t1", domain.ListFilter{
		EntityType: "contact",
		Search:     "col",
		IDs:        []string{"a", "b"},
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		selectPrefix+" AND entity_type = $2 AND id IN ($3,$4) AND (name ILIKE $5 OR ref_id ILIKE $6)",
		sql)
	assert.Equal(t, []any{"t1", "contact", "a", "b", "%col%", "%col%"}, args)
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"sort_order ASC", "id ASC"}},
		{"order", []string{"sort_order ASC", "id ASC"}},
		{"-order", []string{"sort_order DESC", "id ASC"}},
		{"-name", []string{"name DESC", "sort_order ASC", "id ASC"}},
		{"required", []string{"(definition->>'required')::boolean ASC", "sort_order ASC", "id ASC"}},
		{"id", []string{"id ASC"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOrderBy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseOrderBy("created_at; DROP")
	assert.True(t, apperror.IsValidation(err))
}

func TestRefIDsQuery(t *testing.T) {
	store := NewCustomFieldStore(nil)

	sql, args, err := refIDsQuery(store.Builder(), "t1", "shoe-size").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT ref_id FROM custom_fields WHERE tenant_id = $1 AND ref_id ~ $2", sql)
	assert.Equal(t, []any{"t1", "^shoe-size_[0-9]+$"}, args)
}

func TestDefinitionRow_ColumnsWin(t *testing.T) {
	row := definitionRow{
		ID:         "d1",
		RefID:      "color_2",
		Name:       "Color",
		SortOrder:  4,
		EntityType: "contact",
		Type:       "SINGLE_CHECKBOX",
		Definition: []byte(`{"id":"stale","name":"Old","refId":"color_1","type":"SINGLE_CHECKBOX","entityType":"contact","order":1,"required":true,"isRepeatable":false,"checkboxField":{}}`),
	}

	d, err := row.toDefinition()
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "color_2", d.RefID)
	assert.Equal(t, "Color", d.Name)
	assert.Equal(t, 4, d.Order)
	assert.True(t, d.Required)
	assert.True(t, d.Visible)
	assert.NotNil(t, d.Config)
}

func TestDefinitionRow_BadJSON(t *testing.T) {
	_, err := definitionRow{ID: "d1", Definition: []byte(`{`)}.toDefinition()
	assert.Error(t, err)
}
