package data

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    float64
		wantErr bool
	}{
		{name: "int win", raw: 1, want: 1},
		{name: "int loss", raw: 0, want: 0},
		{name: "float draw", raw: 0.5, want: 0.5},
		{name: "float32 draw", raw: float32(0.5), want: 0.5},
		{name: "int64 win", raw: int64(1), want: 1},
		{name: "string win", raw: "1", want: 1},
		{name: "string draw", raw: " 0.5 ", want: 0.5},
		{name: "comma decimal", raw: "0,5", want: 0.5},
		{name: "half sign", raw: "½", want: 0.5},
		{name: "fraction", raw: "1/2", want: 0.5},
		{name: "equals sign", raw: "=", want: 0.5},
		{name: "two", raw: 2, wantErr: true},
		{name: "negative", raw: -1, wantErr: true},
		{name: "quarter", raw: 0.25, wantErr: true},
		{name: "word", raw: "win", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "nil", raw: nil, wantErr: true},
		{name: "bool", raw: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResult(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidResult))

				var resultErr *InvalidResultError
				require.ErrorAs(t, err, &resultErr)
				assert.Equal(t, tt.raw, resultErr.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordResult(t *testing.T) {
	tests := []struct {
		raw   any
		wantA float64
		wantB float64
	}{
		{raw: 1, wantA: 1, wantB: 0},
		{raw: 0, wantA: 0, wantB: 1},
		{raw: 0.5, wantA: 0.5, wantB: 0.5},
	}

	for _, tt := range tests {
		m, err := RecordResult(NewMatch("A", "B"), tt.raw)
		require.NoError(t, err)
		assert.True(t, m.IsSet())
		assert.Equal(t, tt.wantA, m[0].Points())
		assert.Equal(t, tt.wantB, m[1].Points())
		assert.Equal(t, 1.0, m[0].Points()+m[1].Points(), "scores must sum to one")
		assert.Equal(t, "A", m[0].PlayerID)
		assert.Equal(t, "B", m[1].PlayerID)
	}
}

func TestRecordResult_Overwrite(t *testing.T) {
	m, err := RecordResult(NewMatch("A", "B"), 1)
	require.NoError(t, err)

	m, err = RecordResult(m, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m[0].Points())
	assert.Equal(t, 1.0, m[1].Points())
}

func TestRecordResult_InvalidLeavesMatchUntouched(t *testing.T) {
	original, err := RecordResult(NewMatch("A", "B"), 0.5)
	require.NoError(t, err)

	got, err := RecordResult(original, 2)
	assert.ErrorIs(t, err, ErrInvalidResult)
	assert.Equal(t, 0.5, got[0].Points())
	assert.Equal(t, 0.5, got[1].Points())

	unset, err := RecordResult(NewMatch("C", "D"), "x")
	assert.Error(t, err)
	assert.False(t, unset.IsSet())
}

func TestRecordResult_DoesNotAliasInput(t *testing.T) {
	first, err := RecordResult(NewMatch("A", "B"), 1)
	require.NoError(t, err)

	second, err := RecordResult(first, 0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, first[0].Points(), "earlier match value must keep its score")
	assert.Equal(t, 0.0, second[0].Points())
}
