// Package statepoint reads and writes solver result files.
//
// A statepoint is the binary file the transport solver emits after a
// scheduled batch. It carries the k-effective estimators with their
// standard deviations, the realization count, and the accumulated
// sum / sum-of-squares arrays for every tally. The file layout is a
// fixed little-endian format:
//
//	magic    [4]byte  "FSP1"
//	version  uint16
//	batches  uint32   batch the file was written after
//	realizations uint32
//	keff     4 x (float64 value, float64 std dev)
//	         order: collision, absorption, tracklength, combined
//	ntallies uint32
//	per tally:
//	  id      int32
//	  nbins   uint32
//	  nscores uint32
//	  sum     nbins*nscores float64
//	  sumsq   nbins*nscores float64
//
// The writer half of the format lives here too: it is the contract the
// solver honors, and having it in-tree lets tests fabricate statepoints
// without running a solver.
package statepoint

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// magic identifies a statepoint file.
var magic = [4]byte{'F', 'S', 'P', '1'}

// Version is the current statepoint format version.
const Version uint16 = 1

// maxTallyBins caps a single tally's bin*score product to keep a
// corrupt header from driving an enormous allocation.
const maxTallyBins = 1 << 26

// KEffective is one k-effective estimate with its uncertainty.
type KEffective struct {
	// Value is the estimated neutron multiplication factor.
	Value float64 `json:"value"`

	// StdDev is one standard deviation of the estimate.
	StdDev float64 `json:"stdDev"`
}

// String renders the estimate in the conventional "k ± σ" form.
func (k KEffective) String() string {
	return fmt.Sprintf("%.5f +/- %.5f", k.Value, k.StdDev)
}

// TallyResult holds the accumulated moments for one tally.
type TallyResult struct {
	// ID is the tally identifier from tallies.xml.
	ID int `json:"id"`

	// Bins is the phase-space bin count, Scores the score count;
	// Sum and SumSq are flattened bin-major arrays of length
	// Bins*Scores.
	Bins   int       `json:"bins"`
	Scores int       `json:"scores"`
	Sum    []float64 `json:"sum"`
	SumSq  []float64 `json:"sumSq"`
}

// Mean returns the sample mean for a bin/score pair given the
// realization count.
func (t *TallyResult) Mean(bin, score, realizations int) float64 {
	if realizations == 0 {
		return 0
	}
	return t.Sum[bin*t.Scores+score] / float64(realizations)
}

// StatePoint is the parsed content of a statepoint file.
type StatePoint struct {
	// Batches is the batch count the file was written after.
	Batches int `json:"batches"`

	// Realizations is the number of active-batch realizations behind
	// the tally moments.
	Realizations int `json:"realizations"`

	// KCollision, KAbsorption, and KTracklength are the three
	// single-estimator k-effective values.
	KCollision   KEffective `json:"kCollision"`
	KAbsorption  KEffective `json:"kAbsorption"`
	KTracklength KEffective `json:"kTracklength"`

	// KCombined is the minimum-variance combination of the three
	// estimators; this is the value a run reports.
	KCombined KEffective `json:"kCombined"`

	// Tallies holds the per-tally accumulated moments.
	Tallies []TallyResult `json:"tallies"`
}

// Filename returns the statepoint filename the solver writes after the
// given batch.
func Filename(batches int) string {
	return fmt.Sprintf("statepoint.%d.bin", batches)
}

// Tally returns the result for the given tally ID, or nil if absent.
func (sp *StatePoint) Tally(id int) *TallyResult {
	for i := range sp.Tallies {
		if sp.Tallies[i].ID == id {
			return &sp.Tallies[i]
		}
	}
	return nil
}

// Read parses a statepoint file from disk.
func Read(path string) (*StatePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statepoint: %w", err)
	}
	defer f.Close()

	sp, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("corrupt statepoint %s: %w", path, err)
	}
	return sp, nil
}

// Decode parses a statepoint from a stream.
func Decode(r io.Reader) (*StatePoint, error) {
	var hdr struct {
		Magic        [4]byte
		Version      uint16
		Batches      uint32
		Realizations uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if hdr.Magic != magic {
		return nil, fmt.Errorf("bad magic %q", hdr.Magic[:])
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("unsupported statepoint version %d", hdr.Version)
	}

	sp := &StatePoint{
		Batches:      int(hdr.Batches),
		Realizations: int(hdr.Realizations),
	}

	for _, k := range []*KEffective{&sp.KCollision, &sp.KAbsorption, &sp.KTracklength, &sp.KCombined} {
		if err := binary.Read(r, binary.LittleEndian, k); err != nil {
			return nil, fmt.Errorf("reading k-effective block: %w", err)
		}
		if math.IsNaN(k.Value) || k.StdDev < 0 {
			return nil, fmt.Errorf("invalid k-effective estimate %v", *k)
		}
	}

	var ntallies uint32
	if err := binary.Read(r, binary.LittleEndian, &ntallies); err != nil {
		return nil, fmt.Errorf("reading tally count: %w", err)
	}

	for i := uint32(0); i < ntallies; i++ {
		var th struct {
			ID     int32
			Bins   uint32
			Scores uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &th); err != nil {
			return nil, fmt.Errorf("reading tally %d header: %w", i, err)
		}
		n := int(th.Bins) * int(th.Scores)
		if n <= 0 || n > maxTallyBins {
			return nil, fmt.Errorf("tally %d: implausible result size %d", th.ID, n)
		}

		t := TallyResult{
			ID:     int(th.ID),
			Bins:   int(th.Bins),
			Scores: int(th.Scores),
			Sum:    make([]float64, n),
			SumSq:  make([]float64, n),
		}
		if err := binary.Read(r, binary.LittleEndian, t.Sum); err != nil {
			return nil, fmt.Errorf("reading tally %d sums: %w", th.ID, err)
		}
		if err := binary.Read(r, binary.LittleEndian, t.SumSq); err != nil {
			return nil, fmt.Errorf("reading tally %d sum-of-squares: %w", th.ID, err)
		}
		sp.Tallies = append(sp.Tallies, t)
	}

	return sp, nil
}

// Write serializes the statepoint to the conventional filename inside
// dir and returns the full path.
func (sp *StatePoint) Write(dir string) (string, error) {
	path := filepath.Join(dir, Filename(sp.Batches))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create statepoint: %w", err)
	}
	defer f.Close()

	if err := sp.Encode(f); err != nil {
		return "", fmt.Errorf("failed to write statepoint %s: %w", path, err)
	}
	return path, nil
}

// Encode serializes the statepoint to a stream.
func (sp *StatePoint) Encode(w io.Writer) error {
	hdr := struct {
		Magic        [4]byte
		Version      uint16
		Batches      uint32
		Realizations uint32
	}{magic, Version, uint32(sp.Batches), uint32(sp.Realizations)}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	for _, k := range []KEffective{sp.KCollision, sp.KAbsorption, sp.KTracklength, sp.KCombined} {
		if err := binary.Write(w, binary.LittleEndian, &k); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(sp.Tallies))); err != nil {
		return err
	}
	for i := range sp.Tallies {
		t := &sp.Tallies[i]
		if len(t.Sum) != t.Bins*t.Scores || len(t.SumSq) != t.Bins*t.Scores {
			return fmt.Errorf("tally %d: sum arrays do not match %dx%d", t.ID, t.Bins, t.Scores)
		}
		th := struct {
			ID     int32
			Bins   uint32
			Scores uint32
		}{int32(t.ID), uint32(t.Bins), uint32(t.Scores)}
		if err := binary.Write(w, binary.LittleEndian, &th); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, t.Sum); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, t.SumSq); err != nil {
			return err
		}
	}
	return nil
}
