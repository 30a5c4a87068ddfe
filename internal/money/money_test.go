package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsTwoDecimalPlaces(t *testing.T) {
	for _, in := range []string{"1", "0.01", "100.5", "100.50", "2500.00"} {
		d, err := Parse(in)
		require.NoError(t, err, in)
		require.True(t, d.IsPositive())
	}
}

func TestParseRejectsInvalidAmounts(t *testing.T) {
	for _, in := range []string{"", "0", "0.00", "-5", "10.005", "abc", "1e-3"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrInvalidAmount), in)
	}
}

func TestFormatFixesScale(t *testing.T) {
	require.Equal(t, "100.50", Format(decimal.RequireFromString("100.5")))
	require.Equal(t, "0.00", Format(decimal.Zero))
}

func TestAmountDecodesNumberAndString(t *testing.T) {
	var body struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 0.1, "b": "25.75"}`), &body))

	a, err := body.A.Decimal()
	require.NoError(t, err)
	require.True(t, a.Equal(decimal.RequireFromString("0.1")))

	b, err := body.B.Decimal()
	require.NoError(t, err)
	require.Equal(t, "25.75", Format(b))

	require.False(t, body.C.Set())
	_, err = body.C.Decimal()
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNumberMarshalsAsJSONNumber(t *testing.T) {
	out, err := json.Marshal(map[string]any{"amount": Number(decimal.RequireFromString("12.3"))})
	require.NoError(t, err)
	require.JSONEq(t, `{"amount": 12.30}`, string(out))
}

func TestValidateBoundsMagnitudeWithoutRescaling(t *testing.T) {
	for _, in := range []string{"1e200000000", "1e-200000000", "1e13", "10000000000000", "12345678901234.5"} {
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrInvalidAmount, in)
		require.ErrorIs(t, Validate(decimal.RequireFromString(in)), ErrInvalidAmount, in)
	}
	for _, in := range []string{"9999999999999.99", "1e12", "1.5e2", "100.500"} {
		_, err := Parse(in)
		require.NoError(t, err, in)
	}
	require.Equal(t, "9999999999999.99", Format(Max))
}

func TestParseRejectsLongLiterals(t *testing.T) {
	_, err := Parse("0.0000000000000000000000000000000001")
	require.ErrorIs(t, err, ErrInvalidAmount)
}
