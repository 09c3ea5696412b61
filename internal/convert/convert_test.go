package convert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"artlang/internal/errors"
	"artlang/internal/value"
)

// TestConversionRoundTrip checks convert(convert(v, T), tag(v)) == v for a
// representative sample of scalar tags and target types.
func TestConversionRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		v      value.Value
		target string
		back   string
	}{
		{"integer via string", value.IntVal(2020), "string", "integer"},
		{"integer via floating", value.IntVal(7), "floating", "integer"},
		{"floating via string", value.FloatVal(3.5), "string", "floating"},
		{"logical true via string", value.LogicalVal(true), "string", "logical"},
		{"logical false via string", value.LogicalVal(false), "string", "logical"},
		{"char via string", value.CharVal('A'), "string", "char"},
		{"char via integer", value.CharVal('A'), "integer", "char"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mid, err := To(tt.v, tt.target)
			require.NoError(t, err)

			back, err := To(mid, tt.back)
			require.NoError(t, err)

			require.True(t, value.Equals(tt.v, back),
				"round trip through %s: %v -> %v -> %v", tt.target, tt.v, mid, back)
		})
	}
}

// TestToIntegerConversionFailed grounds spec scenario 6: converting a
// non-numeric string to an integer raises ConversionFailed.
func TestToIntegerConversionFailed(t *testing.T) {
	_, err := To(value.StringVal("nope"), "integer")
	require.Error(t, err)
	ae, ok := err.(*errors.ArturError)
	require.True(t, ok, "expected an *errors.ArturError, got %T", err)
	require.Equal(t, errors.ConversionFailed, ae.Kind)
}
