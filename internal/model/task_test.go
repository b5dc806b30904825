package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Mode
		wantErr bool
	}{
		{name: "all", in: "all", want: ModeAll},
		{name: "active", in: "active", want: ModeActive},
		{name: "completed", in: "completed", want: ModeCompleted},
		{name: "mixed case and spaces", in: "  Active ", want: ModeActive},
		{name: "empty defaults to all", in: "", want: ModeAll},
		{name: "unknown", in: "done", want: ModeAll, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownMode)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_Matches(t *testing.T) {
	open := Task{ID: 1, Text: "open"}
	done := Task{ID: 2, Text: "done", Completed: true}

	assert.True(t, ModeAll.Matches(open))
	assert.True(t, ModeAll.Matches(done))
	assert.True(t, ModeActive.Matches(open))
	assert.False(t, ModeActive.Matches(done))
	assert.False(t, ModeCompleted.Matches(open))
	assert.True(t, ModeCompleted.Matches(done))

	var zero Mode
	assert.True(t, zero.Matches(done), "zero mode behaves like all")
	assert.Equal(t, "all", zero.String())
}

func TestModes_Order(t *testing.T) {
	assert.Equal(t, []Mode{ModeAll, ModeActive, ModeCompleted}, Modes())
	assert.Equal(t, "Completed", ModeCompleted.Label())
}
