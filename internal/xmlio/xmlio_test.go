package xmlio

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFloats verifies the space-separated float rendering keeps the
// shortest round-tripping representation.
func TestFloats(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected string
	}{
		{"empty", nil, ""},
		{"single", []float64{0.625}, "0.625"},
		{"mixed", []float64{0, -10.71, 2e7}, "0 -10.71 2e+07"},
		{"integral values", []float64{1, 2, 3}, "1 2 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Floats(tt.values))
		})
	}
}

// TestInts verifies the space-separated int rendering.
func TestInts(t *testing.T) {
	assert.Equal(t, "", Ints(nil))
	assert.Equal(t, "17 17 1", Ints([]int{17, 17, 1}))
}

// TestWriteFile verifies the shared document framing: XML declaration,
// indentation, and trailing newline.
func TestWriteFile(t *testing.T) {
	type doc struct {
		XMLName xml.Name `xml:"settings"`
		Batches int      `xml:"batches"`
	}

	path := filepath.Join(t.TempDir(), "settings.xml")
	require.NoError(t, WriteFile(path, &doc{Batches: 10}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, xml.Header))
	assert.Contains(t, content, "  <batches>10</batches>")
	assert.True(t, strings.HasSuffix(content, "</settings>\n"))
}
