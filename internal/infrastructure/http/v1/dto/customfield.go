package dto

import (
	"encoding/json"
	"strings"

	"customfields/internal/domain"
	"customfields/internal/domain/filter"
)

// ListQuery holds the query parameters of GET /custom-fields.
type ListQuery struct {
	EntityType string   `form:"entityType"`
	Search     string   `form:"search"`
	IDs        []string `form:"ids"`
	Filter     string   `form:"filter"`
	OrderBy    string   `form:"orderBy"`
	Offset     int      `form:"offset" binding:"min=0"`
	Limit      int      `form:"limit" binding:"min=0"`
}

// ToListFilter converts the query into a domain filter.
// Filter is a JSON array of filter items.
func (q ListQuery) ToListFilter() (domain.ListFilter, error) {
	f := domain.DefaultListFilter()
	f.EntityType = q.EntityType
	f.Search = strings.TrimSpace(q.Search)
	f.IDs = q.IDs
	f.Offset = q.Offset
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Filter != "" {
		var items []filter.Item
		if err := json.Unmarshal([]byte(q.Filter), &items); err != nil {
			return f, err
		}
		f.AdvancedFilters = items
	}
	return f, nil
}

// ValidateValuesRequest carries record values keyed by field refId.
type ValidateValuesRequest struct {
	Values map[string]any `json:"values"`
}

// ValidateValuesResponse is returned when all values are acceptable.
type ValidateValuesResponse struct {
	Valid bool `json:"valid"`
}

// HistoryQuery holds the query parameters of GET /custom-fields/:id/history.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"min=0,max=500"`
}
