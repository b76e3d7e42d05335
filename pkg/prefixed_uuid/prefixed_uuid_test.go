package prefixed_uuid

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, b := New("rpt"), New("rpt")

	assert.Equal(t, "rpt", a.Prefix)
	assert.NotEqual(t, uuid.Nil, a.UUID)
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.True(t, PrefixedUUID{}.IsZero())
}

func TestFromString(t *testing.T) {
	id := uuid.MustParse("9b2c4a55-1f0e-4c8b-a1d2-3e4f5a6b7c8d")

	tests := []struct {
		name    string
		in      string
		want    PrefixedUUID
		wantErr bool
	}{
		{name: "valid", in: "rpt-9b2c4a55-1f0e-4c8b-a1d2-3e4f5a6b7c8d", want: PrefixedUUID{Prefix: "rpt", UUID: id}},
		{name: "prefix with underscore", in: "final_report-9b2c4a55-1f0e-4c8b-a1d2-3e4f5a6b7c8d", want: PrefixedUUID{Prefix: "final_report", UUID: id}},
		{name: "no separator", in: "rpt", wantErr: true},
		{name: "empty prefix", in: "-9b2c4a55-1f0e-4c8b-a1d2-3e4f5a6b7c8d", wantErr: true},
		{name: "bad uuid", in: "rpt-not-a-uuid", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParse(t *testing.T) {
	s := New("rpt").String()

	got, err := Parse("rpt", s)
	require.NoError(t, err)
	assert.Equal(t, s, got.String())

	_, err = Parse("session", s)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestJSON(t *testing.T) {
	type doc struct {
		ID PrefixedUUID `json:"id"`
	}
	in := doc{ID: New("rpt")}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+in.ID.String()+`"}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"garbage"}`), &out))
	assert.Error(t, json.Unmarshal([]byte(`{"id":42}`), &out))
}
