package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFragment(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		total    int
		want     int
		ok       bool
	}{
		{"first slide", "#1", 3, 0, true},
		{"last slide", "#3", 3, 2, true},
		{"without hash", "2", 3, 1, true},
		{"trailing garbage", "#2abc", 3, 1, true},
		{"leading space", "# 2", 3, 1, true},
		{"plus sign", "#+2", 3, 1, true},
		{"decimal", "#2.9", 3, 1, true},
		{"empty", "", 3, 0, false},
		{"hash only", "#", 3, 0, false},
		{"zero", "#0", 3, 0, false},
		{"negative", "#-1", 3, 0, false},
		{"past end", "#4", 3, 0, false},
		{"word", "#intro", 3, 0, false},
		{"overflow", "#99999999999999999999999", 3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFragment(tt.fragment, tt.total)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFragment(t *testing.T) {
	assert.Equal(t, "#1", Fragment(0))
	assert.Equal(t, "#12", Fragment(11))
}
