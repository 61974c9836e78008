package customfield

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"customfields/internal/core/apperror"
	"customfields/internal/domain/customfield/format"
)

const (
	msgAttributeNotAllowed = "Attribute %s is not allowed, following attributes are allowed for field of type %s : %s"
	msgBlankName           = "The 'name' cannot be blank"
	msgNameLength          = "The 'name' length cannot be more than %d"
	msgHelpTextLength      = "The 'helpText' length cannot be more than %d"
	msgBlankEntityType     = "The 'entityType' cannot be blank"
	msgUnknownType         = "The 'type' should be one of: %s"

	msgCheckboxUndefined = "The 'checkboxField' property should be defined for '%s' custom field type."

	msgTextUndefined    = "The 'textField' property should be defined for '%s' custom field type."
	msgMaxSizeNull      = "The value for 'maxSize' should not be null."
	msgMaxSizePositive  = "The value for 'maxSize' should be greater than 0."
	msgMaxSizeCeiling   = "The value for 'maxSize' cannot be more than %d for '%s' custom field type."
	msgUnknownFormat    = "The 'fieldFormat' should be one of: %s"
	msgSelectUndefined  = "The 'selectField' property should be defined for '%s' custom field type."
	msgValuesNull       = "The 'values' property should not be null"
	msgOptionsAmount    = "The options amount should be in range %d - %d"
	msgOptionNull       = "Option should not be null"
	msgOptionValue      = "The option value cannot be blank or have more than %d length"
	msgOptionValuesDup  = "Option values should be unique"
	msgOptionIDsDup     = "Option IDs should be unique"
	msgOptionIDPattern  = "Option ID '%s' should match the pattern opt_<number>"
	msgSortingOrder     = "The 'sortingOrder' should be one of: ASC, DESC, CUSTOM"
	msgMaxDefaults      = "The max defaults amount is %d"
	msgDefaultNotOption = "The default value must be one of defined options: %s"
	msgMultiSelect      = "The 'multiSelect' property should be '%t'"

	msgTypeChanged   = "The type of the custom field can not be changed."
	msgFormatChanged = "The format of the custom field can not be changed."
)

var optionIDPattern = regexp.MustCompile(`^opt_\d{1,5}$`)

// DefinitionValidator checks that definitions are well formed for their type.
type DefinitionValidator struct {
	limits Limits
}

// NewDefinitionValidator creates a validator using limits (zero fields take defaults).
func NewDefinitionValidator(limits Limits) *DefinitionValidator {
	return &DefinitionValidator{limits: limits.WithDefaults()}
}

// Limits returns the effective limits.
func (v *DefinitionValidator) Limits() Limits {
	return v.limits
}

// Validate returns the first structural problem of d, or nil.
func (v *DefinitionValidator) Validate(d *Definition) error {
	if err := v.validateCommon(d); err != nil {
		return err
	}
	if err := onlyAllowedAttributes(d); err != nil {
		return err
	}

	switch {
	case d.Type == TypeSingleCheckbox:
		return v.validateCheckbox(d)
	case d.Type.IsText():
		return v.validateText(d)
	case d.Type == TypeMultiSelectDropdown:
		return v.validateSelect(d, true)
	default:
		return v.validateSelect(d, false)
	}
}

// ValidateUpdate rejects type and format changes against existing, then validates d.
func (v *DefinitionValidator) ValidateUpdate(existing, d *Definition) error {
	if err := CheckImmutable(existing, d); err != nil {
		return err
	}
	return v.Validate(d)
}

// CheckImmutable reports an IMMUTABLE_FIELD_CHANGED error when d changes the
// type or text format of existing.
func CheckImmutable(existing, d *Definition) error {
	if existing.Type != d.Type {
		return apperror.NewImmutableField(attrType, msgTypeChanged).
			WithDetail("value", string(d.Type))
	}
	if !d.Type.IsText() {
		return nil
	}
	if _, ok := d.TextConfig(); !ok {
		// missing payload is reported by Validate
		return nil
	}
	if existing.FieldFormat() != d.FieldFormat() {
		return apperror.NewImmutableField("fieldFormat", msgFormatChanged).
			WithDetail("value", string(d.FieldFormat()))
	}
	return nil
}

func (v *DefinitionValidator) validateCommon(d *Definition) error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid(attrName, msgBlankName)
	}
	if utf8.RuneCountInString(d.Name) > v.limits.NameLength {
		return invalid(attrName, msgNameLength, v.limits.NameLength)
	}
	if utf8.RuneCountInString(d.HelpText) > v.limits.HelpTextLength {
		return invalid(attrHelpText, msgHelpTextLength, v.limits.HelpTextLength)
	}
	if strings.TrimSpace(d.EntityType) == "" {
		return invalid(attrEntityType, msgBlankEntityType)
	}
	if !d.Type.IsValid() {
		names := make([]string, len(AllFieldTypes))
		for i, t := range AllFieldTypes {
			names[i] = string(t)
		}
		return invalid(attrType, msgUnknownType, strings.Join(names, ", "))
	}
	return nil
}

func onlyAllowedAttributes(d *Definition) error {
	allowed := AllowedAttributes(d.Type)
	for _, attr := range d.Attributes() {
		if !slices.Contains(allowed, attr) {
			return invalid(attr, msgAttributeNotAllowed, attr, d.Type, "["+strings.Join(allowed, ", ")+"]")
		}
	}
	return nil
}

func (v *DefinitionValidator) validateCheckbox(d *Definition) error {
	if _, ok := d.Config.(*CheckboxConfig); !ok {
		return invalid(attrCheckboxField, msgCheckboxUndefined, d.Type)
	}
	return nil
}

func (v *DefinitionValidator) validateText(d *Definition) error {
	c, ok := d.TextConfig()
	if !ok {
		return invalid(attrTextField, msgTextUndefined, d.Type)
	}
	if c.MaxSize == nil {
		return invalid("maxSize", msgMaxSizeNull)
	}
	if *c.MaxSize <= 0 {
		return invalid("maxSize", msgMaxSizePositive)
	}
	if ceiling := v.limits.TextCeiling(d.Type); *c.MaxSize > ceiling {
		return invalid("maxSize", msgMaxSizeCeiling, ceiling, d.Type)
	}
	if c.FieldFormat != "" && !format.Known(string(c.FieldFormat)) {
		return invalid("fieldFormat", msgUnknownFormat, "TEXT, EMAIL, NUMBER, URL")
	}
	return nil
}

func (v *DefinitionValidator) validateSelect(d *Definition, multi bool) error {
	c, ok := d.SelectConfig()
	if !ok {
		return invalid(attrSelectField, msgSelectUndefined, d.Type)
	}
	if err := v.validateOptionsBounds(c, v.limits.MaxOptions(d.Type)); err != nil {
		return err
	}

	maxDefaults := 1
	if multi {
		maxDefaults = len(c.Options.Values)
	}
	if err := validateDefaults(c, maxDefaults); err != nil {
		return err
	}
	return validateMultiSelectFlag(multi, c.MultiSelect)
}

func (v *DefinitionValidator) validateOptionsBounds(c *SelectConfig, maxOptions int) error {
	if c.Options == nil || c.Options.Values == nil {
		return invalid("values", msgValuesNull)
	}
	opts := c.Options.Values
	if len(opts) == 0 || len(opts) > maxOptions {
		return invalid("values", msgOptionsAmount, 1, maxOptions)
	}

	values := make(map[string]struct{}, len(opts))
	ids := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		if o == nil {
			return invalid("values", msgOptionNull)
		}
		if strings.TrimSpace(o.Value) == "" || utf8.RuneCountInString(o.Value) > v.limits.OptionValueLength {
			return invalid("values", msgOptionValue, v.limits.OptionValueLength)
		}
		if _, dup := values[o.Value]; dup {
			return invalid("values", msgOptionValuesDup)
		}
		values[o.Value] = struct{}{}

		if o.ID == "" {
			continue
		}
		if !optionIDPattern.MatchString(o.ID) {
			return invalid("values", msgOptionIDPattern, o.ID)
		}
		if _, dup := ids[o.ID]; dup {
			return invalid("values", msgOptionIDsDup)
		}
		ids[o.ID] = struct{}{}
	}

	switch c.Options.SortingOrder {
	case "", SortASC, SortDESC, SortCustom:
	default:
		return invalid("sortingOrder", msgSortingOrder)
	}
	return nil
}

// validateDefaults checks the default selection. A non-nil Defaults list
// decides the selection, otherwise the options flagged as default do.
func validateDefaults(c *SelectConfig, maxDefaults int) error {
	if len(c.Defaults) > maxDefaults {
		return invalid("defaults", msgMaxDefaults, maxDefaults)
	}

	selected := make(map[*SelectOption]struct{})
	if c.Defaults != nil {
		for _, def := range c.Defaults {
			o := findOption(c.Options.Values, def)
			if o == nil {
				return invalid("defaults", msgDefaultNotOption, optionLabels(c.Options.Values))
			}
			selected[o] = struct{}{}
		}
	} else {
		for _, o := range c.Options.Values {
			if o.IsDefault {
				selected[o] = struct{}{}
			}
		}
	}
	if len(selected) > maxDefaults {
		return invalid("defaults", msgMaxDefaults, maxDefaults)
	}
	return nil
}

func validateMultiSelectFlag(expected bool, actual *bool) error {
	if actual == nil || *actual != expected {
		return invalid("multiSelect", msgMultiSelect, expected)
	}
	return nil
}

// findOption matches ref against option ids first, then values.
func findOption(opts []*SelectOption, ref string) *SelectOption {
	for _, o := range opts {
		if o != nil && o.ID != "" && o.ID == ref {
			return o
		}
	}
	for _, o := range opts {
		if o != nil && o.Value == ref {
			return o
		}
	}
	return nil
}

func optionLabels(opts []*SelectOption) string {
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.ID != "" {
			labels = append(labels, o.ID)
		} else {
			labels = append(labels, o.Value)
		}
	}
	return "[" + strings.Join(labels, ", ") + "]"
}

func invalid(attribute, msg string, args ...any) *apperror.AppError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return apperror.NewValidation(msg).WithDetail("attribute", attribute)
}
