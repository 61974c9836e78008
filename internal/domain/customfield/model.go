// Package customfield implements tenant-defined custom fields: the definition
// model, definition and value validators, refId/order assignment and the bulk
// replace reconciliation.
package customfield

import (
	"slices"
	"time"

	"customfields/internal/domain/customfield/format"
)

// EntityName is used in not-found messages and audit records.
const EntityName = "CustomField"

// FieldType is the closed set of supported field kinds.
type FieldType string

const (
	TypeSingleCheckbox       FieldType = "SINGLE_CHECKBOX"
	TypeTextboxShort         FieldType = "TEXTBOX_SHORT"
	TypeTextboxLong          FieldType = "TEXTBOX_LONG"
	TypeSingleSelectDropdown FieldType = "SINGLE_SELECT_DROPDOWN"
	TypeMultiSelectDropdown  FieldType = "MULTI_SELECT_DROPDOWN"
	TypeRadioButton          FieldType = "RADIO_BUTTON"
)

// AllFieldTypes lists every FieldType in declaration order.
var AllFieldTypes = []FieldType{
	TypeSingleCheckbox,
	TypeTextboxShort,
	TypeTextboxLong,
	TypeSingleSelectDropdown,
	TypeMultiSelectDropdown,
	TypeRadioButton,
}

// IsValid reports whether t is a known type.
func (t FieldType) IsValid() bool {
	return slices.Contains(AllFieldTypes, t)
}

// IsText reports whether t is a textbox type.
func (t FieldType) IsText() bool {
	return t == TypeTextboxShort || t == TypeTextboxLong
}

// IsSelectable reports whether t carries options.
func (t FieldType) IsSelectable() bool {
	return t == TypeSingleSelectDropdown || t == TypeMultiSelectDropdown || t == TypeRadioButton
}

// ConfigAttribute is the JSON attribute holding the type's config payload.
func (t FieldType) ConfigAttribute() string {
	switch {
	case t == TypeSingleCheckbox:
		return attrCheckboxField
	case t.IsText():
		return attrTextField
	case t.IsSelectable():
		return attrSelectField
	}
	return ""
}

// FieldFormat is the shape required from a text value.
type FieldFormat string

const (
	FormatText   FieldFormat = format.Text
	FormatEmail  FieldFormat = format.Email
	FormatNumber FieldFormat = format.Number
	FormatURL    FieldFormat = format.URL
)

// OrDefault returns TEXT for an unset format.
func (f FieldFormat) OrDefault() FieldFormat {
	if f == "" {
		return FormatText
	}
	return f
}

// SortingOrder controls option presentation order.
type SortingOrder string

const (
	SortASC    SortingOrder = "ASC"
	SortDESC   SortingOrder = "DESC"
	SortCustom SortingOrder = "CUSTOM"
)

// Definition describes one custom field of a tenant.
type Definition struct {
	ID           string
	RefID        string
	Name         string
	HelpText     string
	Type         FieldType
	EntityType   string
	Order        int
	Required     bool
	Visible      bool
	IsRepeatable bool

	// Config is one of *CheckboxConfig, *TextConfig, *SelectConfig.
	Config TypeConfig

	Metadata *Metadata

	// attrs holds the attributes present in decoded JSON. Nil for values
	// built in code; see Attributes.
	attrs []string
}

// TypeConfig is the type-specific payload of a definition.
type TypeConfig interface {
	attribute() string
	clone() TypeConfig
}

// CheckboxConfig is the payload of SINGLE_CHECKBOX fields.
type CheckboxConfig struct{}

func (*CheckboxConfig) attribute() string { return attrCheckboxField }
func (c *CheckboxConfig) clone() TypeConfig {
	return &CheckboxConfig{}
}

// TextConfig is the payload of textbox fields.
type TextConfig struct {
	MaxSize     *int        `json:"maxSize,omitempty"`
	FieldFormat FieldFormat `json:"fieldFormat,omitempty"`
}

func (*TextConfig) attribute() string { return attrTextField }
func (c *TextConfig) clone() TypeConfig {
	cp := *c
	if c.MaxSize != nil {
		v := *c.MaxSize
		cp.MaxSize = &v
	}
	return &cp
}

// SelectConfig is the payload of dropdown and radio fields.
type SelectConfig struct {
	MultiSelect *bool          `json:"multiSelect,omitempty"`
	Options     *SelectOptions `json:"options,omitempty"`

	// Defaults may name options by id or by value. Saved definitions keep ids only.
	Defaults []string `json:"defaults,omitempty"`
}

// SelectOptions is the option list of a select field.
type SelectOptions struct {
	Values       []*SelectOption `json:"values"`
	SortingOrder SortingOrder    `json:"sortingOrder,omitempty"`
}

// SelectOption is one choice of a select field.
type SelectOption struct {
	ID        string `json:"id,omitempty"`
	Value     string `json:"value"`
	IsDefault bool   `json:"default"`
}

func (*SelectConfig) attribute() string { return attrSelectField }
func (c *SelectConfig) clone() TypeConfig {
	cp := &SelectConfig{Defaults: slices.Clone(c.Defaults)}
	if c.MultiSelect != nil {
		v := *c.MultiSelect
		cp.MultiSelect = &v
	}
	if c.Options != nil {
		opts := &SelectOptions{SortingOrder: c.Options.SortingOrder}
		if c.Options.Values != nil {
			opts.Values = make([]*SelectOption, len(c.Options.Values))
			for i, o := range c.Options.Values {
				if o != nil {
					oc := *o
					opts.Values[i] = &oc
				}
			}
		}
		cp.Options = opts
	}
	return cp
}

// Metadata records who created and last updated a definition.
type Metadata struct {
	CreatedDate       time.Time  `json:"createdDate"`
	CreatedByUserID   string     `json:"createdByUserId,omitempty"`
	CreatedByUsername string     `json:"createdByUsername,omitempty"`
	UpdatedDate       *time.Time `json:"updatedDate,omitempty"`
	UpdatedByUserID   string     `json:"updatedByUserId,omitempty"`
	UpdatedByUsername string     `json:"updatedByUsername,omitempty"`
}

// Clone returns a deep copy of d.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Config != nil {
		cp.Config = d.Config.clone()
	}
	if d.Metadata != nil {
		md := *d.Metadata
		if d.Metadata.UpdatedDate != nil {
			t := *d.Metadata.UpdatedDate
			md.UpdatedDate = &t
		}
		cp.Metadata = &md
	}
	cp.attrs = slices.Clone(d.attrs)
	return &cp
}

// TextConfig returns the text payload, if any.
func (d *Definition) TextConfig() (*TextConfig, bool) {
	c, ok := d.Config.(*TextConfig)
	return c, ok && c != nil
}

// SelectConfig returns the select payload, if any.
func (d *Definition) SelectConfig() (*SelectConfig, bool) {
	c, ok := d.Config.(*SelectConfig)
	return c, ok && c != nil
}

// FieldFormat returns the text format of a textbox definition, TEXT when unset.
// Non-text definitions return "".
func (d *Definition) FieldFormat() FieldFormat {
	if c, ok := d.TextConfig(); ok {
		return c.FieldFormat.OrDefault()
	}
	return ""
}

// Options returns the non-nil options of a select definition.
func (d *Definition) Options() []*SelectOption {
	c, ok := d.SelectConfig()
	if !ok || c.Options == nil {
		return nil
	}
	out := make([]*SelectOption, 0, len(c.Options.Values))
	for _, o := range c.Options.Values {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// OptionIDs returns ids of all options that have one.
func (d *Definition) OptionIDs() []string {
	var ids []string
	for _, o := range d.Options() {
		if o.ID != "" {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// DefaultOptionIDs returns ids of options flagged as default.
func (d *Definition) DefaultOptionIDs() []string {
	var ids []string
	for _, o := range d.Options() {
		if o.IsDefault && o.ID != "" {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// OptionByID finds an option by id.
func (d *Definition) OptionByID(optionID string) (*SelectOption, bool) {
	for _, o := range d.Options() {
		if o.ID == optionID {
			return o, true
		}
	}
	return nil, false
}
