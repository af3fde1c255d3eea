package entities

import (
	"fmt"
	"math"
)

// Weight is a two-dimensional execution budget: RefTime is computation time
// in picoseconds and ProofSize is the storage proof budget in bytes.
type Weight struct {
	RefTime   uint64 `json:"ref_time" yaml:"ref_time" msgpack:"ref_time"`
	ProofSize uint64 `json:"proof_size" yaml:"proof_size" msgpack:"proof_size"`
}

// NewWeight builds a Weight from its parts.
func NewWeight(refTime, proofSize uint64) Weight {
	return Weight{RefTime: refTime, ProofSize: proofSize}
}

// IsZero reports whether both components are zero.
func (w Weight) IsZero() bool {
	return w.RefTime == 0 && w.ProofSize == 0
}

// Add returns the component-wise sum, saturating at the maximum.
func (w Weight) Add(o Weight) Weight {
	return Weight{
		RefTime:   saturatingAdd(w.RefTime, o.RefTime),
		ProofSize: saturatingAdd(w.ProofSize, o.ProofSize),
	}
}

// SaturatingSub returns the component-wise difference, floored at zero.
func (w Weight) SaturatingSub(o Weight) Weight {
	return Weight{
		RefTime:   saturatingSub(w.RefTime, o.RefTime),
		ProofSize: saturatingSub(w.ProofSize, o.ProofSize),
	}
}

// AllLTE reports whether every component of w is <= the same component of o.
func (w Weight) AllLTE(o Weight) bool {
	return w.RefTime <= o.RefTime && w.ProofSize <= o.ProofSize
}

// AnyGT reports whether some component of w exceeds that of o.
func (w Weight) AnyGT(o Weight) bool {
	return !w.AllLTE(o)
}

func (w Weight) String() string {
	return fmt.Sprintf("Weight(ref_time: %d, proof_size: %d)", w.RefTime, w.ProofSize)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
