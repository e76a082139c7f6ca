package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		key      string
		adUnit   string
		size     string
		tokenLen int
	}{
		{name: "key only", config: "pub-123", key: "pub-123", adUnit: "", size: "0", tokenLen: 1},
		{name: "key and unit", config: "pub-123|unit-456", key: "pub-123", adUnit: "unit-456", size: "0", tokenLen: 2},
		{name: "with size", config: "pub-123|unit-456|2", key: "pub-123", adUnit: "unit-456", size: "2", tokenLen: 3},
		{name: "empty", config: "", key: "", adUnit: "", size: "0", tokenLen: 1},
		{name: "slashes in unit", config: "admanager|/1234/news/top", key: "admanager", adUnit: "/1234/news/top", size: "0", tokenLen: 2},
		{name: "empty unit", config: "key||1", key: "key", adUnit: "", size: "1", tokenLen: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Decode(tt.config)
			assert.Equal(t, tt.key, f.Key())
			assert.Equal(t, tt.adUnit, f.AdUnitID())
			assert.Equal(t, tt.size, f.SizeToken())
			assert.Equal(t, tt.tokenLen, f.Len())
			assert.Equal(t, tt.config, f.Raw())
		})
	}
}

func TestFields_OutOfRangeDefaults(t *testing.T) {
	f := Decode("a|b")

	assert.Equal(t, "", f.String(5))
	assert.Equal(t, "", f.String(-1))

	n, err := f.Int(7)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, 42, f.IntOr(9, 42))
}

func TestFields_MalformedNumericFailsOnUse(t *testing.T) {
	f := Decode("key|unit|abc|20")

	_, err := f.Int(2)
	assert.Error(t, err)
	assert.Equal(t, 7, f.IntOr(2, 7))

	n, err := f.Int(3)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
