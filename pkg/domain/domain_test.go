package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"empty means unbounded", "", 0, false},
		{"positive", "5", 5, false},
		{"one", "1", 1, false},
		{"zero rejected", "0", 0, true},
		{"negative rejected", "-1", 0, true},
		{"non-numeric rejected", "abc", 0, true},
		{"float rejected", "1.5", 0, true},
		{"whitespace rejected", " 3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLimit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckLimit(t *testing.T) {
	assert.NoError(t, CheckLimit(1))
	assert.NoError(t, CheckLimit(100))
	assert.ErrorIs(t, CheckLimit(0), ErrInvalidLimit)
	assert.ErrorIs(t, CheckLimit(-5), ErrInvalidLimit)
}

func TestValidDateKey(t *testing.T) {
	assert.True(t, ValidDateKey("20230102"))
	assert.True(t, ValidDateKey("19991231"))

	assert.False(t, ValidDateKey(""))
	assert.False(t, ValidDateKey("2023-01-02"))
	assert.False(t, ValidDateKey("2023010"))
	assert.False(t, ValidDateKey("202301021"))
	assert.False(t, ValidDateKey("2023010a"))
}

func TestFeedKind_String(t *testing.T) {
	assert.Equal(t, "plain", KindPlain.String())
	assert.Equal(t, "wrapped", KindWrapped.String())
}

func TestArticle_HasImage(t *testing.T) {
	a := Article{Title: "no image"}
	assert.False(t, a.HasImage())

	a.ImageLink = "http://example.com/pic.png"
	assert.True(t, a.HasImage())
}
