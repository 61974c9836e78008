package customfield

func ptr[T any](v T) *T { return &v }

func checkboxDef(name string) *Definition {
	return &Definition{
		Name:       name,
		Type:       TypeSingleCheckbox,
		EntityType: "user",
		Visible:    true,
		Config:     &CheckboxConfig{},
	}
}

func textDef(name string, typ FieldType, maxSize int, f FieldFormat) *Definition {
	return &Definition{
		Name:       name,
		Type:       typ,
		EntityType: "user",
		Visible:    true,
		Config:     &TextConfig{MaxSize: ptr(maxSize), FieldFormat: f},
	}
}

func selectDef(name string, typ FieldType, values ...string) *Definition {
	opts := make([]*SelectOption, len(values))
	for i, v := range values {
		opts[i] = &SelectOption{Value: v}
	}
	return &Definition{
		Name:       name,
		Type:       typ,
		EntityType: "user",
		Visible:    true,
		Config: &SelectConfig{
			MultiSelect: ptr(typ == TypeMultiSelectDropdown),
			Options:     &SelectOptions{Values: opts, SortingOrder: SortCustom},
		},
	}
}
