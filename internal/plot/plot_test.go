package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPlot_Validate checks the per-type shape rules for slice and
// voxel plots.
func TestPlot_Validate(t *testing.T) {
	tests := []struct {
		name     string
		plot     Plot
		hasError bool
	}{
		{"default slice", Plot{ID: 1, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}}, false},
		{"explicit slice basis", Plot{ID: 2, Type: TypeSlice, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}, Basis: BasisXZ}, false},
		{"voxel plot", Plot{ID: 3, Type: TypeVoxel, Origin: []float64{0, 0, 0}, Width: []float64{2, 2, 2}, Pixels: []int{50, 50, 50}}, false},
		{"zero id", Plot{ID: 0, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}}, true},
		{"invalid type", Plot{ID: 4, Type: "wireframe", Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}}, true},
		{"short origin", Plot{ID: 5, Origin: []float64{0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}}, true},
		{"slice with 3 widths", Plot{ID: 6, Origin: []float64{0, 0, 0}, Width: []float64{2, 2, 2}, Pixels: []int{100, 100}}, true},
		{"voxel with 2 widths", Plot{ID: 7, Type: TypeVoxel, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{50, 50}}, true},
		{"zero pixels", Plot{ID: 8, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{0, 100}}, true},
		{"negative width", Plot{ID: 9, Origin: []float64{0, 0, 0}, Width: []float64{-2, 2}, Pixels: []int{100, 100}}, true},
		{"invalid basis", Plot{ID: 10, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}, Basis: "zz"}, true},
		{"invalid color mode", Plot{ID: 11, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}, ColorBy: "universe"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plot.Validate()
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestPlots_Validate_DuplicateID verifies ID uniqueness across the
// collection.
func TestPlots_Validate_DuplicateID(t *testing.T) {
	ps := Plots{List: []Plot{
		{ID: 1, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}},
		{ID: 1, Origin: []float64{0, 0, 0}, Width: []float64{2, 2}, Pixels: []int{100, 100}},
	}}

	err := ps.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate plot id 1")
}

// TestPlots_ExportXML exercises serialization to plots.xml: slice
// defaults and the basis-free voxel element.
func TestPlots_ExportXML(t *testing.T) {
	dir := t.TempDir()
	ps := Plots{List: []Plot{
		{ID: 1, Name: "core", Origin: []float64{0, 0, 0}, Width: []float64{21.42, 21.42}, Pixels: []int{400, 400}},
		{ID: 2, Type: TypeVoxel, Origin: []float64{0, 0, 0}, Width: []float64{20, 20, 20}, Pixels: []int{50, 50, 50}, ColorBy: ColorByMaterial},
	}}

	require.NoError(t, ps.ExportXML(dir))

	data, err := os.ReadFile(filepath.Join(dir, "plots.xml"))
	require.NoError(t, err)
	content := string(data)

	// Slice defaults: type, color mode, and basis filled in.
	assert.Contains(t, content, `<plot id="1" name="core" type="slice" color_by="cell" basis="xy">`)
	assert.Contains(t, content, "<width>21.42 21.42</width>")
	assert.Contains(t, content, "<pixels>400 400</pixels>")

	// Voxel plots carry no basis attribute.
	assert.Contains(t, content, `<plot id="2" type="voxel" color_by="material">`)
	assert.NotContains(t, content, `id="2" type="voxel" color_by="material" basis=`)
}
