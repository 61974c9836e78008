package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customfields/internal/core/apperror"
	"customfields/internal/domain"
	"customfields/internal/domain/customfield"
	"customfields/internal/domain/filter"
)

const tenantID = "diku"

func def(id, name, refID string, order int, typ customfield.FieldType) *customfield.Definition {
	return &customfield.Definition{
		ID:         id,
		Name:       name,
		RefID:      refID,
		Order:      order,
		Type:       typ,
		EntityType: "user",
		Visible:    true,
		Config:     &customfield.CheckboxConfig{},
	}
}

func seed(t *testing.T, s *Store, defs ...*customfield.Definition) {
	t.Helper()
	for _, d := range defs {
		_, err := s.Save(context.Background(), tenantID, d)
		require.NoError(t, err)
	}
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, def("a", "Alpha", "alpha_1", 1, customfield.TypeSingleCheckbox))

	got, err := s.FindByID(ctx, tenantID, "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha_1", got.RefID)

	// returned values are copies
	got.Name = "mutated"
	again, _ := s.FindByID(ctx, tenantID, "a")
	assert.Equal(t, "Alpha", again.Name)

	_, err = s.FindByID(ctx, "other-tenant", "a")
	assert.True(t, apperror.IsNotFound(err))

	got.Name = "Renamed"
	applied, err := s.Update(ctx, tenantID, got)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.Update(ctx, tenantID, def("missing", "x", "x_1", 2, customfield.TypeSingleCheckbox))
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = s.Delete(ctx, tenantID, "a")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.Delete(ctx, tenantID, "a")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestStore_RefIDConflict(t *testing.T) {
	s := NewStore()
	seed(t, s, def("a", "Alpha", "alpha_1", 1, customfield.TypeSingleCheckbox))

	_, err := s.Save(context.Background(), tenantID, def("b", "Alpha", "alpha_1", 2, customfield.TypeSingleCheckbox))
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestStore_MaxOrderAndRefIDSuffix(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	maxOrder, err := s.MaxOrder(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 0, maxOrder)

	seed(t, s,
		def("a", "Color", "color_1", 1, customfield.TypeSingleCheckbox),
		def("b", "Color", "color_7", 2, customfield.TypeSingleCheckbox),
		def("c", "Colors", "colors_9", 3, customfield.TypeSingleCheckbox),
	)

	maxOrder, _ = s.MaxOrder(ctx, tenantID)
	assert.Equal(t, 3, maxOrder)

	n, err := s.MaxRefIDSuffix(ctx, tenantID, "color")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, _ = s.MaxRefIDSuffix(ctx, tenantID, "size")
	assert.Equal(t, int64(0), n)
}

func TestStore_RunAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, def("a", "Alpha", "alpha_1", 1, customfield.TypeSingleCheckbox))

	boom := errors.New("boom")
	err := s.RunAtomic(ctx, tenantID, func(ctx context.Context) error {
		if _, err := s.Delete(ctx, tenantID, "a"); err != nil {
			return err
		}
		if _, err := s.Next(ctx, tenantID, "refid:alpha", 0); err != nil {
			return err
		}
		// the unit sees its own writes
		_, err := s.FindByID(ctx, tenantID, "a")
		assert.True(t, apperror.IsNotFound(err))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FindByID(ctx, tenantID, "a")
	assert.NoError(t, err)

	n, _ := s.Next(ctx, tenantID, "refid:alpha", 0)
	assert.Equal(t, int64(1), n, "allocation inside the failed unit is rolled back")
}

func TestStore_Next(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	n, _ := s.Next(ctx, tenantID, "option:x", 0)
	assert.Equal(t, int64(1), n)
	n, _ = s.Next(ctx, tenantID, "option:x", 5)
	assert.Equal(t, int64(6), n)
	n, _ = s.Next(ctx, tenantID, "option:x", 2)
	assert.Equal(t, int64(7), n)
}

func TestStore_Reserve(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Reserve(ctx, tenantID, "option:x", 3))
	require.NoError(t, s.Reserve(ctx, tenantID, "option:x", 1))
	n, _ := s.Next(ctx, tenantID, "option:x", 0)
	assert.Equal(t, int64(4), n)

	// rolled back with the transaction
	err := s.RunAtomic(ctx, tenantID, func(ctx context.Context) error {
		if err := s.Reserve(ctx, tenantID, "option:x", 10); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	n, _ = s.Next(ctx, tenantID, "option:x", 0)
	assert.Equal(t, int64(5), n)
}

func TestStore_FindByFilter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s,
		def("a", "Department", "department_1", 2, customfield.TypeSingleCheckbox),
		def("b", "Sponsor", "sponsor_1", 1, customfield.TypeRadioButton),
		def("c", "Dept code", "dept-code_1", 3, customfield.TypeTextboxShort),
	)

	t.Run("default order", func(t *testing.T) {
		items, total, err := s.FindByFilter(ctx, tenantID, domain.ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"b", "a", "c"}, ids(items))
	})

	t.Run("search and paging", func(t *testing.T) {
		items, total, err := s.FindByFilter(ctx, tenantID, domain.ListFilter{Search: "dep", Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"c"}, ids(items))
	})

	t.Run("descending name", func(t *testing.T) {
		items, _, err := s.FindByFilter(ctx, tenantID, domain.ListFilter{OrderBy: "-name", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, ids(items))
	})

	t.Run("advanced filters", func(t *testing.T) {
		items, _, err := s.FindByFilter(ctx, tenantID, domain.ListFilter{
			Limit: 10,
			AdvancedFilters: []filter.Item{
				{Field: "type", Operator: filter.InList, Value: []any{"RADIO_BUTTON", "TEXTBOX_SHORT"}},
				{Field: "order", Operator: filter.Greater, Value: float64(1)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, ids(items))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, _, err := s.FindByFilter(ctx, tenantID, domain.ListFilter{
			AdvancedFilters: []filter.Item{{Field: "definition", Operator: filter.Equal, Value: "x"}},
		})
		assert.True(t, apperror.IsValidation(err))
	})
}

func ids(defs []*customfield.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}
