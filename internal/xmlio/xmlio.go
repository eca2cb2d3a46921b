// Package xmlio holds the small shared helpers used by the input-file
// export code across the domain packages.
//
// The solver input suite is a set of XML documents (geometry.xml,
// materials.xml, settings.xml, ...). Every exporter marshals a
// serialization-only struct with encoding/xml and writes it through
// WriteFile so all files share the same header, indentation, and
// permissions. Numeric lists inside the documents use the conventional
// space-separated form produced by Floats and Ints.
package xmlio

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteFile marshals doc with 2-space indentation, prepends the XML
// declaration, and writes the document with a trailing newline.
func WriteFile(path string, doc interface{}) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}

	out := make([]byte, 0, len(xml.Header)+len(data)+1)
	out = append(out, []byte(xml.Header)...)
	out = append(out, data...)
	out = append(out, '\n')

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Floats renders a float slice as a space-separated list.
// strconv.FormatFloat with the -1 precision keeps the shortest
// representation that round-trips, so 0.625 stays "0.625".
func Floats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Ints renders an int slice as a space-separated list.
func Ints(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
