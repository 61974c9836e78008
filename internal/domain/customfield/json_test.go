package customfield

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_UnmarshalPicksPayloadByType(t *testing.T) {
	body := `{
		"id": "11111111-1111-1111-1111-111111111111",
		"name": "Size",
		"type": "MULTI_SELECT_DROPDOWN",
		"entityType": "package",
		"required": true,
		"selectField": {
			"multiSelect": true,
			"options": {"values": [{"id": "opt_1", "value": "S"}, {"value": "M", "default": true}], "sortingOrder": "ASC"},
			"defaults": ["S"]
		},
		"metadata": null
	}`

	var d Definition
	require.NoError(t, json.Unmarshal([]byte(body), &d))

	assert.Equal(t, TypeMultiSelectDropdown, d.Type)
	assert.True(t, d.Visible, "visible defaults to true")
	assert.True(t, d.Required)
	assert.Equal(t, []string{"entityType", "id", "name", "required", "selectField", "type"}, d.Attributes())

	c, ok := d.SelectConfig()
	require.True(t, ok)
	assert.Equal(t, SortASC, c.Options.SortingOrder)
	assert.Equal(t, []string{"S"}, c.Defaults)
	assert.Equal(t, []string{"opt_1"}, d.OptionIDs())
	assert.Nil(t, d.Metadata)
}

func TestDefinition_MarshalWireShape(t *testing.T) {
	d := textDef("Email", TypeTextboxShort, 100, FormatEmail)
	d.ID = "abc"
	d.RefID = "email_1"
	d.Order = 3

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "email_1", m["refId"])
	assert.Equal(t, float64(3), m["order"])
	assert.Equal(t, true, m["visible"])
	assert.Equal(t, map[string]any{"maxSize": float64(100), "fieldFormat": "EMAIL"}, m["textField"])
	assert.NotContains(t, m, "selectField")
	assert.NotContains(t, m, "checkboxField")

	var back Definition
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, FormatEmail, back.FieldFormat())
}

func TestDefinition_CloneIsDeep(t *testing.T) {
	d := selectDef("Color", TypeSingleSelectDropdown, "red")
	cp := d.Clone()
	cp.Config.(*SelectConfig).Options.Values[0].Value = "blue"
	*cp.Config.(*SelectConfig).MultiSelect = true

	assert.Equal(t, "red", d.Options()[0].Value)
	assert.False(t, *d.Config.(*SelectConfig).MultiSelect)
}
