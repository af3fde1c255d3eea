package query

import (
	stdErrors "errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	"github.com/reglet-dev/reglet-extensions/domain/errors"
)

var errEmptyProgram = stdErrors.New("empty program")

// Query is the decoded form of a query payload.
type Query struct {
	Program []byte `msgpack:"program"`
	Args    []byte `msgpack:"args"`
}

// EncodeQuery builds the payload for program and args.
func EncodeQuery(program, args []byte) ([]byte, error) {
	data, err := msgpack.Marshal(&Query{Program: program, Args: args})
	if err != nil {
		return nil, &errors.WireFormatError{Operation: "encode", Type: "Query", Err: err}
	}
	return data, nil
}

// DecodeQuery parses a query payload. A query without a program is
// rejected.
func DecodeQuery(data []byte) (Query, error) {
	var q Query
	if err := msgpack.Unmarshal(data, &q); err != nil {
		return Query{}, &errors.WireFormatError{Operation: "decode", Type: "Query", Err: err}
	}
	if len(q.Program) == 0 {
		return Query{}, &errors.WireFormatError{Operation: "decode", Type: "Query", Err: errEmptyProgram}
	}
	return q, nil
}

// EncodeProgramError renders code as query output.
func EncodeProgramError(code entities.ProgramErrorCode) []byte {
	// Encoding a uint8 cannot fail.
	data, _ := msgpack.Marshal(uint8(code))
	return data
}

// DecodeProgramError reads output produced by EncodeProgramError.
func DecodeProgramError(data []byte) (entities.ProgramErrorCode, error) {
	var code uint8
	if err := msgpack.Unmarshal(data, &code); err != nil {
		return 0, &errors.WireFormatError{Operation: "decode", Type: "ProgramErrorCode", Err: err}
	}
	return entities.ProgramErrorCode(code), nil
}
