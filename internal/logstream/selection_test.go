package logstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankon/cidash/internal/entity"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		fragment string
		want     Selection
		text     string
		wantErr  bool
	}{
		{fragment: "", want: Selection{}, text: ""},
		{fragment: "#12", want: Selection{Start: 12, End: 12}, text: "12"},
		{fragment: "12-30", want: Selection{Start: 12, End: 30}, text: "12-30"},
		{fragment: "#30-12", want: Selection{Start: 12, End: 30}, text: "12-30"},
		{fragment: "#0", wantErr: true},
		{fragment: "#a-3", wantErr: true},
		{fragment: "#3-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			got, err := ParseSelection(tt.fragment)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, got.String())
		})
	}
}

func TestSelection_Apply(t *testing.T) {
	lines := []entity.LogLine{{Index: 1}, {Index: 2}, {Index: 3}, {Index: 4}}

	sel := Selection{Start: 2, End: 3}
	assert.Equal(t, []entity.LogLine{{Index: 2}, {Index: 3}}, sel.Apply(lines))
	assert.Len(t, Selection{}.Apply(lines), 4)
	assert.False(t, sel.Contains(4))
}
