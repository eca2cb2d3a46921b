// digest.go implements the stable result digest used by regression
// testing. Instead of comparing full tally arrays against golden files,
// a run's results are rendered into a canonical text form and hashed;
// regression suites then compare a single hex digest per case.
package statepoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ResultsText renders the statepoint into the canonical text form the
// digest is computed over.
//
// Floats are formatted with %.6E so the text is insensitive to
// round-trip formatting differences but sensitive to any change in the
// accumulated values beyond noise introduced by a format change.
// Tallies appear in file order; within a tally, values are bin-major.
func (sp *StatePoint) ResultsText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "k-combined:\n%.6E %.6E\n", sp.KCombined.Value, sp.KCombined.StdDev)

	for i := range sp.Tallies {
		t := &sp.Tallies[i]
		fmt.Fprintf(&b, "tally %d:\n", t.ID)
		for _, v := range t.Sum {
			fmt.Fprintf(&b, "%.6E\n", v)
		}
		for _, v := range t.SumSq {
			fmt.Fprintf(&b, "%.6E\n", v)
		}
	}

	return b.String()
}

// Digest returns the SHA-256 hex digest of the canonical results text.
func (sp *StatePoint) Digest() string {
	sum := sha256.Sum256([]byte(sp.ResultsText()))
	return hex.EncodeToString(sum[:])
}
