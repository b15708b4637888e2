package album

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlbum_FormatName(t *testing.T) {
	tests := []struct {
		name     string
		album    Album
		expected string
	}{
		{
			name:     "with artist",
			album:    Album{Name: "Kid A", Artist: "Radiohead"},
			expected: "Radiohead - Kid A",
		},
		{
			name:     "youtube video has no artist",
			album:    Album{Name: "Full Album Stream"},
			expected: "Full Album Stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.album.FormatName())
		})
	}
}
