package memory

import (
	"fmt"
	"reflect"
	"strings"

	"customfields/internal/core/apperror"
	"customfields/internal/domain/customfield"
	"customfields/internal/domain/filter"
)

func itemMatcher(get fieldGetter, item filter.Item) (matcher, error) {
	switch item.Operator {
	case filter.IsNull:
		return func(d *customfield.Definition) bool { return isZero(get(d)) }, nil
	case filter.IsNotNull:
		return func(d *customfield.Definition) bool { return !isZero(get(d)) }, nil
	case filter.Equal:
		return func(d *customfield.Definition) bool { return compare(get(d), item.Value) == 0 }, nil
	case filter.NotEqual:
		return func(d *customfield.Definition) bool { return compare(get(d), item.Value) != 0 }, nil
	case filter.Less:
		return func(d *customfield.Definition) bool { return compare(get(d), item.Value) < 0 }, nil
	case filter.Greater:
		return func(d *customfield.Definition) bool { return compare(get(d), item.Value) > 0 }, nil
	case filter.LessOrEqual:
		return func(d *customfield.Definition) bool { return compare(get(d), item.Value) <= 0 }, nil
	case filter.GreaterOrEqual:
		return func(d *customfield.Definition) bool { return compare(get(d), item.Value) >= 0 }, nil
	case filter.Contains, filter.NotContains:
		q := strings.ToLower(fmt.Sprint(item.Value))
		want := item.Operator == filter.Contains
		return func(d *customfield.Definition) bool {
			return strings.Contains(strings.ToLower(fmt.Sprint(get(d))), q) == want
		}, nil
	case filter.InList, filter.NotInList:
		list, ok := toList(item.Value)
		if !ok {
			return nil, apperror.NewValidation(fmt.Sprintf("filter %q: value must be a list", item.Field))
		}
		want := item.Operator == filter.InList
		return func(d *customfield.Definition) bool {
			v := get(d)
			found := false
			for _, candidate := range list {
				if compare(v, candidate) == 0 {
					found = true
					break
				}
			}
			return found == want
		}, nil
	}
	return nil, apperror.NewValidation(fmt.Sprintf("filter %q: unsupported operator %q", item.Field, item.Operator))
}

// compare orders a field value against a filter value. Filter values come
// from JSON, so numbers arrive as float64 and are compared numerically.
func compare(a, b any) int {
	switch av := a.(type) {
	case int:
		bv, ok := toFloat(b)
		if !ok {
			return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
		}
		switch {
		case float64(av) < bv:
			return -1
		case float64(av) > bv:
			return 1
		}
		return 0
	case bool:
		bv, ok := b.(bool)
		if !ok {
			bv = fmt.Sprint(b) == "true"
		}
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toList(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isZero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}
