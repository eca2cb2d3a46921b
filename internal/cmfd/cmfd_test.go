package cmfd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCMFD_Validate checks the coarse-mesh shape rules and the batch
// schedule constraints.
func TestCMFD_Validate(t *testing.T) {
	valid := CMFD{
		Dimension:  []int{10, 10},
		LowerLeft:  []float64{-10, -10},
		UpperRight: []float64{10, 10},
		Begin:      5,
	}

	tests := []struct {
		name     string
		mutate   func(c *CMFD)
		hasError bool
	}{
		{"valid config", func(c *CMFD) {}, false},
		{"no dimensions", func(c *CMFD) { c.Dimension = nil }, true},
		{"four dimensions", func(c *CMFD) {
			c.Dimension = []int{1, 1, 1, 1}
			c.LowerLeft = []float64{0, 0, 0, 0}
			c.UpperRight = []float64{1, 1, 1, 1}
		}, true},
		{"zero bin count", func(c *CMFD) { c.Dimension[0] = 0 }, true},
		{"corner length mismatch", func(c *CMFD) { c.LowerLeft = []float64{-10} }, true},
		{"inverted box", func(c *CMFD) { c.UpperRight = []float64{-20, 10} }, true},
		{"zero begin", func(c *CMFD) { c.Begin = 0 }, true},
		{"reset before begin", func(c *CMFD) { c.TallyResetBatches = []int{3} }, true},
		{"reset after begin", func(c *CMFD) { c.TallyResetBatches = []int{5, 8} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			c.Dimension = append([]int(nil), valid.Dimension...)
			tt.mutate(&c)

			err := c.Validate()
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestCMFD_ExportXML exercises serialization to cmfd.xml.
func TestCMFD_ExportXML(t *testing.T) {
	dir := t.TempDir()
	c := CMFD{
		Dimension:         []int{10, 10},
		LowerLeft:         []float64{-10.71, -10.71},
		UpperRight:        []float64{10.71, 10.71},
		Begin:             5,
		TallyResetBatches: []int{5, 10},
		Norm:              1.0,
	}

	require.NoError(t, c.ExportXML(dir))

	data, err := os.ReadFile(filepath.Join(dir, "cmfd.xml"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "<dimension>10 10</dimension>")
	assert.Contains(t, content, "<lower_left>-10.71 -10.71</lower_left>")
	assert.Contains(t, content, "<begin>5</begin>")
	assert.Contains(t, content, "<tally_reset>5 10</tally_reset>")
	assert.Contains(t, content, "<norm>1</norm>")
}
