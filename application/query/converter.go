package query

import (
	"math"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	"github.com/reglet-dev/reglet-extensions/domain/ports"
)

// FixedConverter ignores its input and always returns the same amounts.
// It is meant for tests and development hosts.
type FixedConverter struct {
	Weight entities.Weight
	Gas    int64
}

// NewFixedConverter returns a converter granting 1e9 gas for any weight and
// charging (1e9, 1000) weight for any gas.
func NewFixedConverter() FixedConverter {
	return FixedConverter{
		Gas:    1_000_000_000,
		Weight: entities.NewWeight(1_000_000_000, 1000),
	}
}

func (c FixedConverter) WeightToGas(entities.Weight) int64 { return c.Gas }

func (c FixedConverter) GasToWeight(int64) entities.Weight { return c.Weight }

// RefTimeConverter maps the ref time component of a weight to gas at a
// fixed rate. Proof size is not metered by the engine.
type RefTimeConverter struct {
	PicosPerGas uint64
}

func (c RefTimeConverter) WeightToGas(w entities.Weight) int64 {
	if c.PicosPerGas == 0 {
		return 0
	}
	gas := w.RefTime / c.PicosPerGas
	if gas > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(gas)
}

func (c RefTimeConverter) GasToWeight(gas int64) entities.Weight {
	if gas <= 0 {
		return entities.Weight{}
	}
	g := uint64(gas)
	if c.PicosPerGas != 0 && g > math.MaxUint64/c.PicosPerGas {
		return entities.NewWeight(math.MaxUint64, 0)
	}
	return entities.NewWeight(g*c.PicosPerGas, 0)
}

var (
	_ ports.GasWeightConverter = FixedConverter{}
	_ ports.GasWeightConverter = RefTimeConverter{}
)
