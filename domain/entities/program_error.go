package entities

// ProgramErrorCode classifies a failure reported by a program engine.
type ProgramErrorCode uint8

const (
	ProgramErrorFailedToDecode ProgramErrorCode = iota
	ProgramErrorInvalidFormat
	ProgramErrorWeightLimit
	ProgramErrorTrap
	ProgramErrorMemoryAccess
	ProgramErrorHostCall
	ProgramErrorOther
)

var programErrorNames = [...]string{
	ProgramErrorFailedToDecode: "failed_to_decode",
	ProgramErrorInvalidFormat:  "invalid_program_format",
	ProgramErrorWeightLimit:    "query_exceeds_weight_limit",
	ProgramErrorTrap:           "trap",
	ProgramErrorMemoryAccess:   "memory_access_error",
	ProgramErrorHostCall:       "host_call_error",
	ProgramErrorOther:          "other",
}

func (c ProgramErrorCode) String() string {
	if int(c) < len(programErrorNames) {
		return programErrorNames[c]
	}
	return "unknown"
}
