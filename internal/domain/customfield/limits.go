package customfield

// Limits holds the configurable ceilings used by validators.
type Limits struct {
	NameLength          int
	HelpTextLength      int
	OptionValueLength   int
	DropdownMaxOptions  int
	RadioMaxOptions     int
	TextboxShortMaxSize int
	TextboxLongMaxSize  int
	MaxPageSize         int
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{
		NameLength:          65,
		HelpTextLength:      100,
		OptionValueLength:   100,
		DropdownMaxOptions:  200,
		RadioMaxOptions:     5,
		TextboxShortMaxSize: 150,
		TextboxLongMaxSize:  1500,
		MaxPageSize:         1000,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&l.NameLength, d.NameLength)
	fill(&l.HelpTextLength, d.HelpTextLength)
	fill(&l.OptionValueLength, d.OptionValueLength)
	fill(&l.DropdownMaxOptions, d.DropdownMaxOptions)
	fill(&l.RadioMaxOptions, d.RadioMaxOptions)
	fill(&l.TextboxShortMaxSize, d.TextboxShortMaxSize)
	fill(&l.TextboxLongMaxSize, d.TextboxLongMaxSize)
	fill(&l.MaxPageSize, d.MaxPageSize)
	return l
}

// MaxOptions returns the option ceiling for a select type.
func (l Limits) MaxOptions(t FieldType) int {
	if t == TypeRadioButton {
		return l.RadioMaxOptions
	}
	return l.DropdownMaxOptions
}

// TextCeiling returns the largest maxSize allowed for a textbox type.
func (l Limits) TextCeiling(t FieldType) int {
	if t == TypeTextboxLong {
		return l.TextboxLongMaxSize
	}
	return l.TextboxShortMaxSize
}
