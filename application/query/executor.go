package query

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-extensions/application/config"
	"github.com/reglet-dev/reglet-extensions/domain/entities"
	"github.com/reglet-dev/reglet-extensions/domain/errors"
	"github.com/reglet-dev/reglet-extensions/domain/ports"
)

// Executor implements ports.QueryExecutor on top of a ProgramEngine.
type Executor struct {
	engine    ports.ProgramEngine
	converter ports.GasWeightConverter
	logger    *slog.Logger
	weightCap *entities.Weight
	sizeCap   int
	refund    bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithConverter sets the weight/gas converter. The default is
// NewFixedConverter().
func WithConverter(c ports.GasWeightConverter) Option {
	return func(e *Executor) {
		e.converter = c
	}
}

// WithRefund makes Execute report the unused part of the budget.
// Executors built without it never refund.
func WithRefund(enabled bool) Option {
	return func(e *Executor) {
		e.refund = enabled
	}
}

// WithMaxQuerySize rejects queries longer than n bytes with a decode error.
// n <= 0 leaves only the limit carried by the BoundedQuery itself.
func WithMaxQuerySize(n int) Option {
	return func(e *Executor) {
		e.sizeCap = n
	}
}

// WithMaxWeight rejects budgets exceeding w in either dimension with a
// weight-limit error.
func WithMaxWeight(w entities.Weight) Option {
	return func(e *Executor) {
		e.weightCap = &w
	}
}

// WithLogger sets the logger for execution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor that does not refund weight.
func NewExecutor(engine ports.ProgramEngine, opts ...Option) *Executor {
	e := &Executor{
		engine:    engine,
		converter: NewFixedConverter(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig creates an executor configured by cfg. Later opts override it.
func FromConfig(engine ports.ProgramEngine, cfg config.QueryConfig, opts ...Option) *Executor {
	var converter ports.GasWeightConverter = NewFixedConverter()
	if cfg.Converter == config.ConverterRefTime {
		converter = RefTimeConverter{PicosPerGas: cfg.PicosPerGas}
	}
	base := []Option{
		WithConverter(converter),
		WithRefund(cfg.Refund),
		WithMaxQuerySize(cfg.MaxQuerySize),
		WithMaxWeight(cfg.MaxWeight),
	}
	return NewExecutor(engine, append(base, opts...)...)
}

// Execute decodes query, runs it within maxWeight and maps the outcome.
func (e *Executor) Execute(ctx context.Context, query entities.BoundedQuery, maxWeight entities.Weight) (*ports.QueryResult, error) {
	if e.sizeCap > 0 && query.Len() > e.sizeCap {
		return nil, &errors.QueryError{
			Kind: errors.QueryErrorDecode,
			Err:  fmt.Errorf("query of %d bytes exceeds limit of %d bytes", query.Len(), e.sizeCap),
		}
	}
	if e.weightCap != nil && maxWeight.AnyGT(*e.weightCap) {
		return nil, &errors.QueryError{
			Kind: errors.QueryErrorWeightLimit,
			Err:  fmt.Errorf("%s exceeds the configured maximum %s", maxWeight, *e.weightCap),
		}
	}

	q, err := DecodeQuery(query.Bytes())
	if err != nil {
		return nil, &errors.QueryError{Kind: errors.QueryErrorDecode, Err: err}
	}

	gasLimit := e.converter.WeightToGas(maxWeight)
	if gasLimit <= 0 {
		return nil, &errors.QueryError{
			Kind: errors.QueryErrorWeightLimit,
			Err:  fmt.Errorf("%s converts to no gas", maxWeight),
		}
	}

	output, gasUsed, err := e.engine.Run(ctx, q.Program, q.Args, gasLimit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("execute query: %w", ctxErr)
		}
		output, err = e.mapEngineError(ctx, err)
		if err != nil {
			return nil, err
		}
	}

	result := &ports.QueryResult{Output: output}
	if e.refund {
		leftover := maxWeight.SaturatingSub(e.converter.GasToWeight(gasUsed))
		result.Leftover = &leftover
	}

	e.logger.DebugContext(ctx, "query executed",
		"program_size", len(q.Program),
		"gas_limit", gasLimit,
		"gas_used", gasUsed,
		"output_size", len(result.Output))
	return result, nil
}

// mapEngineError turns an engine failure into either a query error or an
// encoded error code returned as output.
func (e *Executor) mapEngineError(ctx context.Context, err error) ([]byte, error) {
	code := entities.ProgramErrorOther
	var perr *errors.ProgramError
	if stdErrors.As(err, &perr) {
		code = perr.Code
	}

	switch code {
	case entities.ProgramErrorFailedToDecode, entities.ProgramErrorInvalidFormat:
		return nil, &errors.QueryError{Kind: errors.QueryErrorDecode, Err: err}
	case entities.ProgramErrorWeightLimit:
		return nil, &errors.QueryError{Kind: errors.QueryErrorWeightLimit, Err: err}
	default:
		e.logger.DebugContext(ctx, "program failed", "code", code.String(), "error", err)
		return EncodeProgramError(code), nil
	}
}

var _ ports.QueryExecutor = (*Executor)(nil)
