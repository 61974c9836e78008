// Package filter describes advanced list filters passed by API clients.
package filter

import "fmt"

// ComparisonType определяет виды сравнения.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"        // Равно
	NotEqual       ComparisonType = "neq"       // Не равно
	Less           ComparisonType = "lt"        // Меньше
	Greater        ComparisonType = "gt"        // Больше
	LessOrEqual    ComparisonType = "lte"       // Меньше или равно
	GreaterOrEqual ComparisonType = "gte"       // Больше или равно
	InList         ComparisonType = "in"        // В списке
	NotInList      ComparisonType = "nin"       // Не в списке
	Contains       ComparisonType = "contains"  // Содержит (ILIKE %val%)
	NotContains    ComparisonType = "ncontains" // Не содержит (NOT ILIKE %val%)

	IsNull    ComparisonType = "null"     // Не заполнено
	IsNotNull ComparisonType = "not_null" // Заполнено
)

// Item представляет одну строку отбора.
type Item struct {
	Field    string         `json:"field"`    // Имя поля (snake_case)
	Operator ComparisonType `json:"operator"` // Вид сравнения
	Value    any            `json:"value"`    // Значение (строка, число, массив)
}

// Validate checks that the operator is known and a value is present when needed.
func (i Item) Validate() error {
	if i.Field == "" {
		return fmt.Errorf("filter field is required")
	}
	switch i.Operator {
	case IsNull, IsNotNull:
		return nil
	case Equal, NotEqual, Less, Greater, LessOrEqual, GreaterOrEqual,
		InList, NotInList, Contains, NotContains:
		if i.Value == nil {
			return fmt.Errorf("filter %q: value is required for operator %q", i.Field, i.Operator)
		}
		return nil
	default:
		return fmt.Errorf("filter %q: unsupported operator %q", i.Field, i.Operator)
	}
}
