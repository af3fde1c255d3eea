package ports

import (
	"context"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
)

// QueryExecutor runs an encoded query against a program engine.
//
// Execute fails only for malformed input (errors.QueryErrorDecode) or an
// unsatisfiable budget (errors.QueryErrorWeightLimit). Failures inside the
// program are reported as an encoded error code in QueryResult.Output.
type QueryExecutor interface {
	Execute(ctx context.Context, query entities.BoundedQuery, maxWeight entities.Weight) (*QueryResult, error)
}

// QueryResult is the outcome of a query.
type QueryResult struct {
	// Leftover is the unused part of the budget, or nil when the executor
	// does not refund weight.
	Leftover *entities.Weight
	Output   []byte
}

// GasWeightConverter translates between weight budgets and engine gas.
type GasWeightConverter interface {
	WeightToGas(w entities.Weight) int64
	GasToWeight(gas int64) entities.Weight
}

// ProgramEngine executes a program with its arguments under a gas limit.
// A failing run returns an *errors.ProgramError.
type ProgramEngine interface {
	Run(ctx context.Context, program, args []byte, gasLimit int64) (output []byte, gasUsed int64, err error)
}
