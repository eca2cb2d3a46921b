package mgxs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoGroupData builds a shape-correct two-group dataset for tests.
func twoGroupData(name string, order int) XSData {
	x := XSData{
		Name:       name,
		Order:      order,
		Total:      []float64{0.2, 0.8},
		Absorption: []float64{0.01, 0.1},
		NuFission:  []float64{0.005, 0.2},
		Chi:        []float64{1.0, 0.0},
	}
	for gOut := 0; gOut < 2; gOut++ {
		row := make([][]float64, 2)
		for gIn := 0; gIn < 2; gIn++ {
			m := make([]float64, order+1)
			m[0] = 0.1
			row[gIn] = m
		}
		x.Scatter = append(x.Scatter, row)
	}
	return x
}

// TestEnergyGroups_Validate checks edge count and ordering rules.
func TestEnergyGroups_Validate(t *testing.T) {
	tests := []struct {
		name     string
		edges    []float64
		hasError bool
	}{
		{"two-group split", []float64{0, 0.625, 2e7}, false},
		{"one-group", []float64{0, 2e7}, false},
		{"single edge", []float64{1}, true},
		{"empty", nil, true},
		{"descending", []float64{2e7, 0.625, 0}, true},
		{"repeated edge", []float64{0, 0.625, 0.625}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEnergyGroups(tt.edges)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestEnergyGroups_Count verifies the group count is edges minus one.
func TestEnergyGroups_Count(t *testing.T) {
	g := EnergyGroups{Edges: []float64{0, 0.625, 2e7}}
	assert.Equal(t, 2, g.Count())
	assert.Equal(t, 0, (&EnergyGroups{}).Count())
}

// TestXSData_Validate shape-checks every array against the group
// structure and the scatter order.
func TestXSData_Validate(t *testing.T) {
	groups := EnergyGroups{Edges: []float64{0, 0.625, 2e7}}

	tests := []struct {
		name     string
		mutate   func(x *XSData)
		hasError bool
	}{
		{"valid dataset", func(x *XSData) {}, false},
		{"empty name", func(x *XSData) { x.Name = "" }, true},
		{"negative order", func(x *XSData) { x.Order = -1 }, true},
		{"short total", func(x *XSData) { x.Total = x.Total[:1] }, true},
		{"short absorption", func(x *XSData) { x.Absorption = nil }, true},
		{"nu-fission without chi", func(x *XSData) { x.Chi = nil }, true},
		{"chi without nu-fission", func(x *XSData) { x.NuFission = nil }, true},
		{"non-fissionable", func(x *XSData) {
			x.NuFission = nil
			x.Chi = nil
		}, false},
		{"short scatter rows", func(x *XSData) { x.Scatter = x.Scatter[:1] }, true},
		{"wrong moment count", func(x *XSData) { x.Scatter[0][0] = []float64{1, 2} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := twoGroupData("fuel", 0)
			tt.mutate(&x)

			err := x.Validate(&groups)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestLibrary_Add verifies shape checking and duplicate-name rejection
// on insert.
func TestLibrary_Add(t *testing.T) {
	l := Library{Groups: EnergyGroups{Edges: []float64{0, 0.625, 2e7}}}

	require.NoError(t, l.Add(twoGroupData("fuel", 0)))
	require.NoError(t, l.Add(twoGroupData("water", 1)))

	err := l.Add(twoGroupData("fuel", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate xsdata name "fuel"`)

	bad := twoGroupData("clad", 0)
	bad.Total = bad.Total[:1]
	assert.Error(t, l.Add(bad))

	assert.Equal(t, []string{"fuel", "water"}, l.Names())
}

// TestLibrary_ExportXML exercises serialization to mgxs.xml, including
// the moment-major scatter row flattening.
func TestLibrary_ExportXML(t *testing.T) {
	dir := t.TempDir()
	l := Library{Groups: EnergyGroups{Edges: []float64{0, 0.625, 2e7}}}
	require.NoError(t, l.Add(twoGroupData("fuel", 0)))

	require.NoError(t, l.ExportXML(dir))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "<group_structure>0 0.625 2e+07</group_structure>")
	assert.Contains(t, content, "<groups>2</groups>")
	assert.Contains(t, content, `<xsdata name="fuel" order="0">`)
	assert.Contains(t, content, "<total>0.2 0.8</total>")
	assert.Contains(t, content, "<nu_fission>0.005 0.2</nu_fission>")
	assert.Contains(t, content, "<chi>1 0</chi>")
	assert.Contains(t, content, `<row outgoing="1">0.1 0.1</row>`)
	assert.Contains(t, content, `<row outgoing="2">0.1 0.1</row>`)
}
