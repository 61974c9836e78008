package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customfields/internal/core/apperror"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"a@b.com", true},
		{"first.last+tag@sub.example.org", true},
		{"user@[192.168.0.1]", true},
		{"a@@b.com", false},
		{"ab.com", false},
		{"a@b.com.", false},
		{"a.@b.com", false},
		{".a@b.com", false},
		{"a b@c.com", false},
		{"a@[300.1.1.1]", false},
		{"@b.com", false},
		{"a@", false},
		{strings.Repeat("x", 65) + "@b.com", false},
		{"a@" + strings.Repeat("d", 256), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateEmail(tt.in)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidFormat))
			assert.Contains(t, err.Error(), "Invalid Email format: "+tt.in)
		})
	}
}

func TestValidateNumber(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  string
	}{
		{"42", true, "42"},
		{"-42", true, "-42"},
		{"3.14", true, "3.14"},
		{"3,14", true, "3.14"},
		{".5", true, "0.5"},
		{"-,5", true, "-0.5"},
		{"1 234 567", true, "1234567"},
		{"1 234,5", true, "1234.5"},
		{"1,234.56", true, "1234.56"},
		{"-12,345,678", true, "-12345678"},
		{"1.234.567", false, ""},
		{"1,234 567", false, ""},
		{"1 23", false, ""},
		{"12a", false, ""},
		{"", false, ""},
		{"--1", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateNumber(tt.in)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeInvalidFormat))
				return
			}
			require.NoError(t, err)
			d, err := ParseNumber(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"https://folio.org", true},
		{"http://localhost:8080/path?q=1", true},
		{"ftp://folio.org", false},
		{"folio.org", false},
		{"https://", false},
		{"http://exa mple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateURL(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Dispatch(t *testing.T) {
	assert.NoError(t, Validate("", "anything"))
	assert.Error(t, Validate(Text, "   "))
	assert.Error(t, Validate(Email, "nope"))
	assert.NoError(t, Validate(Number, "1 000"))

	err := Validate("PHONE", "123")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.True(t, Known(URL))
	assert.False(t, Known("PHONE"))
}
