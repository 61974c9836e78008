package customfield

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customfields/internal/core/apperror"
)

func TestDefinitionValidator_Validate(t *testing.T) {
	v := NewDefinitionValidator(DefaultLimits())

	tests := []struct {
		name    string
		def     func() *Definition
		wantErr string
	}{
		{
			name: "checkbox ok",
			def:  func() *Definition { return checkboxDef("Active") },
		},
		{
			name:    "blank name",
			def:     func() *Definition { return checkboxDef("   ") },
			wantErr: "The 'name' cannot be blank",
		},
		{
			name:    "name too long",
			def:     func() *Definition { return checkboxDef(strings.Repeat("n", 66)) },
			wantErr: "The 'name' length cannot be more than 65",
		},
		{
			name: "help text too long",
			def: func() *Definition {
				d := checkboxDef("Active")
				d.HelpText = strings.Repeat("h", 101)
				return d
			},
			wantErr: "The 'helpText' length cannot be more than 100",
		},
		{
			name: "unknown type",
			def: func() *Definition {
				d := checkboxDef("Active")
				d.Type = "DATE_PICKER"
				return d
			},
			wantErr: "The 'type' should be one of",
		},
		{
			name: "checkbox without payload",
			def: func() *Definition {
				d := checkboxDef("Active")
				d.Config = nil
				return d
			},
			wantErr: "The 'checkboxField' property should be defined for 'SINGLE_CHECKBOX' custom field type.",
		},
		{
			name: "checkbox with text payload",
			def: func() *Definition {
				d := checkboxDef("Active")
				d.Config = &TextConfig{MaxSize: ptr(10)}
				return d
			},
			wantErr: "Attribute textField is not allowed, following attributes are allowed for field of type SINGLE_CHECKBOX",
		},
		{
			name: "text ok",
			def:  func() *Definition { return textDef("Email", TypeTextboxShort, 100, FormatEmail) },
		},
		{
			name: "text without max size",
			def: func() *Definition {
				d := textDef("Notes", TypeTextboxLong, 1, FormatText)
				d.Config.(*TextConfig).MaxSize = nil
				return d
			},
			wantErr: "The value for 'maxSize' should not be null.",
		},
		{
			name:    "text max size zero",
			def:     func() *Definition { return textDef("Notes", TypeTextboxLong, 0, FormatText) },
			wantErr: "The value for 'maxSize' should be greater than 0.",
		},
		{
			name:    "short text over ceiling",
			def:     func() *Definition { return textDef("Notes", TypeTextboxShort, 151, FormatText) },
			wantErr: "cannot be more than 150",
		},
		{
			name:    "unknown format",
			def:     func() *Definition { return textDef("Phone", TypeTextboxShort, 20, "PHONE") },
			wantErr: "The 'fieldFormat' should be one of",
		},
		{
			name: "select without payload",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red")
				d.Config = nil
				return d
			},
			wantErr: "The 'selectField' property should be defined",
		},
		{
			name: "select without values",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red")
				d.Config.(*SelectConfig).Options.Values = nil
				return d
			},
			wantErr: "The 'values' property should not be null",
		},
		{
			name:    "select with no options",
			def:     func() *Definition { return selectDef("Color", TypeSingleSelectDropdown) },
			wantErr: "The options amount should be in range 1 - 200",
		},
		{
			name:    "radio over max options",
			def:     func() *Definition { return selectDef("Size", TypeRadioButton, "a", "b", "c", "d", "e", "f") },
			wantErr: "The options amount should be in range 1 - 5",
		},
		{
			name: "null option",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red")
				c := d.Config.(*SelectConfig)
				c.Options.Values = append(c.Options.Values, nil)
				return d
			},
			wantErr: "Option should not be null",
		},
		{
			name:    "blank option value",
			def:     func() *Definition { return selectDef("Color", TypeSingleSelectDropdown, "red", " ") },
			wantErr: "The option value cannot be blank or have more than 100 length",
		},
		{
			name:    "duplicate option values",
			def:     func() *Definition { return selectDef("Color", TypeSingleSelectDropdown, "red", "red") },
			wantErr: "Option values should be unique",
		},
		{
			name: "option values are case sensitive",
			def:  func() *Definition { return selectDef("Color", TypeSingleSelectDropdown, "red", "Red") },
		},
		{
			name: "duplicate option ids",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red", "blue")
				for _, o := range d.Config.(*SelectConfig).Options.Values {
					o.ID = "opt_1"
				}
				return d
			},
			wantErr: "Option IDs should be unique",
		},
		{
			name: "malformed option id",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red")
				d.Config.(*SelectConfig).Options.Values[0].ID = "red"
				return d
			},
			wantErr: "Option ID 'red' should match the pattern opt_<number>",
		},
		{
			name: "single select with two flagged defaults",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red", "blue")
				for _, o := range d.Config.(*SelectConfig).Options.Values {
					o.IsDefault = true
				}
				return d
			},
			wantErr: "The max defaults amount is 1",
		},
		{
			name: "radio with two listed defaults",
			def: func() *Definition {
				d := selectDef("Size", TypeRadioButton, "s", "m")
				d.Config.(*SelectConfig).Defaults = []string{"s", "m"}
				return d
			},
			wantErr: "The max defaults amount is 1",
		},
		{
			name: "default not an option",
			def: func() *Definition {
				d := selectDef("Size", TypeRadioButton, "s", "m")
				d.Config.(*SelectConfig).Defaults = []string{"xl"}
				return d
			},
			wantErr: "The default value must be one of defined options: [s, m]",
		},
		{
			name: "multi select with several defaults",
			def: func() *Definition {
				d := selectDef("Tags", TypeMultiSelectDropdown, "a", "b", "c")
				d.Config.(*SelectConfig).Defaults = []string{"a", "c"}
				return d
			},
		},
		{
			name: "single select flagged multi",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red")
				d.Config.(*SelectConfig).MultiSelect = ptr(true)
				return d
			},
			wantErr: "The 'multiSelect' property should be 'false'",
		},
		{
			name: "unknown sorting order",
			def: func() *Definition {
				d := selectDef("Color", TypeSingleSelectDropdown, "red")
				d.Config.(*SelectConfig).Options.SortingOrder = "RANDOM"
				return d
			},
			wantErr: "The 'sortingOrder' should be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.def())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinitionValidator_MultiSelect(t *testing.T) {
	v := NewDefinitionValidator(DefaultLimits())

	withFlag := func(flag *bool, n int) *Definition {
		values := make([]string, n)
		for i := range values {
			values[i] = fmt.Sprintf("value %d", i)
		}
		d := selectDef("Tags", TypeMultiSelectDropdown, values...)
		d.Config.(*SelectConfig).MultiSelect = flag
		return d
	}

	err := v.Validate(withFlag(ptr(false), 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The 'multiSelect' property should be 'true'")

	err = v.Validate(withFlag(nil, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The 'multiSelect' property should be 'true'")

	err = v.Validate(withFlag(ptr(true), 201))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The options amount should be in range 1 - 200")

	for _, n := range []int{1, 50, 200} {
		assert.NoError(t, v.Validate(withFlag(ptr(true), n)), "options: %d", n)
	}
}

func TestDefinitionValidator_DecodedAttributes(t *testing.T) {
	v := NewDefinitionValidator(DefaultLimits())

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "text with select payload",
			body: `{"name":"Notes","type":"TEXTBOX_SHORT","entityType":"user",
				"textField":{"maxSize":10},"selectField":{"multiSelect":false}}`,
			wantErr: "Attribute selectField is not allowed, following attributes are allowed for field of type TEXTBOX_SHORT",
		},
		{
			name:    "unknown attribute",
			body:    `{"name":"Active","type":"SINGLE_CHECKBOX","entityType":"user","checkboxField":{},"colour":"red"}`,
			wantErr: "Attribute colour is not allowed",
		},
		{
			name: "null foreign payload is ignored",
			body: `{"name":"Active","type":"SINGLE_CHECKBOX","entityType":"user","checkboxField":{},"textField":null}`,
		},
		{
			name: "radio ok",
			body: `{"name":"Size","type":"RADIO_BUTTON","entityType":"user",
				"selectField":{"multiSelect":false,"options":{"values":[{"value":"S"},{"value":"M","default":true}]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Definition
			require.NoError(t, json.Unmarshal([]byte(tt.body), &d))
			err := v.Validate(&d)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckImmutable(t *testing.T) {
	short := textDef("Notes", TypeTextboxShort, 50, FormatText)

	err := CheckImmutable(short, selectDef("Notes", TypeRadioButton, "a"))
	require.Error(t, err)
	assert.True(t, apperror.IsImmutableField(err))
	assert.Contains(t, err.Error(), "The type of the custom field can not be changed.")

	err = CheckImmutable(short, textDef("Notes", TypeTextboxShort, 50, FormatEmail))
	require.Error(t, err)
	assert.True(t, apperror.IsImmutableField(err))
	assert.Contains(t, err.Error(), "The format of the custom field can not be changed.")

	// unset format is TEXT
	assert.NoError(t, CheckImmutable(short, textDef("Other", TypeTextboxShort, 120, "")))

	radio := selectDef("Size", TypeRadioButton, "s")
	assert.NoError(t, CheckImmutable(radio, selectDef("Size", TypeRadioButton, "s", "m")))
}
