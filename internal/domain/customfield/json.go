package customfield

import (
	"bytes"
	"encoding/json"
	"sort"
)

// JSON attribute names.
const (
	attrID           = "id"
	attrName         = "name"
	attrRefID        = "refId"
	attrType         = "type"
	attrEntityType   = "entityType"
	attrVisible      = "visible"
	attrRequired     = "required"
	attrIsRepeatable = "isRepeatable"
	attrOrder        = "order"
	attrHelpText     = "helpText"
	attrMetadata     = "metadata"

	attrCheckboxField = "checkboxField"
	attrTextField     = "textField"
	attrSelectField   = "selectField"
)

var commonAttributes = []string{
	attrID, attrName, attrRefID, attrType, attrEntityType, attrVisible,
	attrRequired, attrIsRepeatable, attrOrder, attrHelpText, attrMetadata,
}

// AllowedAttributes returns the attributes a definition of type t may carry.
func AllowedAttributes(t FieldType) []string {
	allowed := append([]string(nil), commonAttributes...)
	if a := t.ConfigAttribute(); a != "" {
		allowed = append(allowed, a)
	}
	return allowed
}

// Attributes returns the populated attributes of d, sorted.
// For decoded definitions these are the non-null keys of the source document.
func (d *Definition) Attributes() []string {
	if d.attrs != nil {
		return d.attrs
	}
	attrs := append([]string(nil), commonAttributes...)
	if d.Config != nil {
		attrs = append(attrs, d.Config.attribute())
	}
	sort.Strings(attrs)
	return attrs
}

type definitionWire struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	RefID         string          `json:"refId,omitempty"`
	Type          FieldType       `json:"type"`
	EntityType    string          `json:"entityType"`
	Visible       *bool           `json:"visible,omitempty"`
	Required      bool            `json:"required"`
	IsRepeatable  bool            `json:"isRepeatable"`
	Order         int             `json:"order,omitempty"`
	HelpText      string          `json:"helpText,omitempty"`
	CheckboxField *CheckboxConfig `json:"checkboxField,omitempty"`
	TextField     *TextConfig     `json:"textField,omitempty"`
	SelectField   *SelectConfig   `json:"selectField,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
}

// MarshalJSON renders the definition with its config under the type's attribute.
func (d Definition) MarshalJSON() ([]byte, error) {
	visible := d.Visible
	w := definitionWire{
		ID:           d.ID,
		Name:         d.Name,
		RefID:        d.RefID,
		Type:         d.Type,
		EntityType:   d.EntityType,
		Visible:      &visible,
		Required:     d.Required,
		IsRepeatable: d.IsRepeatable,
		Order:        d.Order,
		HelpText:     d.HelpText,
		Metadata:     d.Metadata,
	}
	switch c := d.Config.(type) {
	case *CheckboxConfig:
		w.CheckboxField = c
	case *TextConfig:
		w.TextField = c
	case *SelectConfig:
		w.SelectField = c
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a definition and remembers which attributes were set.
// The config payload is picked by type; payloads of other types only show up
// in Attributes so validation can reject them.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var w definitionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	attrs := make([]string, 0, len(raw))
	for k, v := range raw {
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			attrs = append(attrs, k)
		}
	}
	sort.Strings(attrs)

	*d = Definition{
		ID:           w.ID,
		RefID:        w.RefID,
		Name:         w.Name,
		HelpText:     w.HelpText,
		Type:         w.Type,
		EntityType:   w.EntityType,
		Order:        w.Order,
		Required:     w.Required,
		Visible:      w.Visible == nil || *w.Visible,
		IsRepeatable: w.IsRepeatable,
		Metadata:     w.Metadata,
		attrs:        attrs,
	}

	switch {
	case w.Type == TypeSingleCheckbox && w.CheckboxField != nil:
		d.Config = w.CheckboxField
	case w.Type.IsText() && w.TextField != nil:
		d.Config = w.TextField
	case w.Type.IsSelectable() && w.SelectField != nil:
		d.Config = w.SelectField
	}
	return nil
}
