package customfield

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"customfields/internal/core/apperror"
	"customfields/internal/domain/customfield/format"
)

const (
	msgExpectArray   = "Field with type %s must be an array"
	msgExpectString  = "Field with type %s must be a string"
	msgExpectBoolean = "Field with type %s must be a boolean"
	msgNotAllowed    = "Field %s can only have following values: %s"
	msgMaxLength     = "Maximum length of the value is %d"
	msgUnknownField  = "Custom field with refId %s does not exist"
)

// FieldError describes one rejected record value.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ValueValidator checks record values against their definitions.
// Values are JSON-decoded: bool, string, float64, []any or map[string]any.
type ValueValidator struct {
	limits Limits
}

// NewValueValidator creates a value validator.
func NewValueValidator(limits Limits) *ValueValidator {
	return &ValueValidator{limits: limits.WithDefaults()}
}

// Validate checks one value. The first failing item wins.
func (v *ValueValidator) Validate(raw any, d *Definition) error {
	switch {
	case d.Type == TypeSingleCheckbox:
		if _, ok := raw.(bool); !ok {
			return apperror.NewValidation(fmt.Sprintf(msgExpectBoolean, d.Type))
		}
		return nil
	case d.Type.IsText():
		return v.validateText(raw, d)
	case d.Type.IsSelectable():
		return v.validateSelect(raw, d)
	}
	return apperror.NewValidation(fmt.Sprintf(msgUnknownType, d.Type))
}

// ValidateAll checks every entry of values against the definition with the
// same refId. Errors are accumulated, keys are visited in sorted order.
func (v *ValueValidator) ValidateAll(values map[string]any, byRefID map[string]*Definition) []FieldError {
	refIDs := make([]string, 0, len(values))
	for k := range values {
		refIDs = append(refIDs, k)
	}
	sort.Strings(refIDs)

	var errs []FieldError
	for _, refID := range refIDs {
		raw := values[refID]
		d, ok := byRefID[refID]
		if !ok {
			errs = append(errs, newFieldError(refID, raw, fmt.Sprintf(msgUnknownField, refID)))
			continue
		}
		if err := v.Validate(raw, d); err != nil {
			errs = append(errs, newFieldError(refID, raw, errorMessage(err)))
		}
	}
	return errs
}

func (v *ValueValidator) validateText(raw any, d *Definition) error {
	if list, ok := raw.([]any); ok && d.IsRepeatable {
		for _, item := range list {
			if err := v.validateTextItem(item, d); err != nil {
				return err
			}
		}
		return nil
	}
	return v.validateTextItem(raw, d)
}

func (v *ValueValidator) validateTextItem(raw any, d *Definition) error {
	s, ok := raw.(string)
	if !ok {
		return apperror.NewValidation(fmt.Sprintf(msgExpectString, d.Type))
	}

	maxLen := v.limits.TextCeiling(d.Type)
	if c, ok := d.TextConfig(); ok && c.MaxSize != nil && *c.MaxSize > 0 && *c.MaxSize < maxLen {
		maxLen = *c.MaxSize
	}
	if utf8.RuneCountInString(s) > maxLen {
		return apperror.NewValidation(fmt.Sprintf(msgMaxLength, maxLen))
	}
	return format.Validate(string(d.FieldFormat()), s)
}

func (v *ValueValidator) validateSelect(raw any, d *Definition) error {
	if d.IsRepeatable {
		return v.validateSelectList(raw, d)
	}
	if _, isList := raw.([]any); isList && d.Type == TypeMultiSelectDropdown {
		return v.validateSelectList(raw, d)
	}
	return v.validateSelectItem(raw, d)
}

func (v *ValueValidator) validateSelectList(raw any, d *Definition) error {
	list, ok := raw.([]any)
	if !ok {
		return apperror.NewValidation(fmt.Sprintf(msgExpectArray, d.Type))
	}
	for _, item := range list {
		if err := v.validateSelectItem(item, d); err != nil {
			return err
		}
	}
	return nil
}

func (v *ValueValidator) validateSelectItem(raw any, d *Definition) error {
	s, ok := raw.(string)
	if !ok {
		return apperror.NewValidation(fmt.Sprintf(msgExpectString, d.Type))
	}
	if _, found := d.OptionByID(s); !found {
		return apperror.NewValidation(fmt.Sprintf(msgNotAllowed, d.RefID, "["+strings.Join(d.OptionIDs(), ", ")+"]"))
	}
	return nil
}

func newFieldError(refID string, raw any, message string) FieldError {
	echo, err := json.Marshal(raw)
	if err != nil {
		echo = []byte(fmt.Sprint(raw))
	}
	return FieldError{Field: refID, Value: string(echo), Message: message}
}

func errorMessage(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
