// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Entity errors
	CodeEntityEmptyID   Code = "ENTITY_EMPTY_ID"
	CodeEntityEmptyName Code = "ENTITY_EMPTY_NAME"

	// Run errors
	CodeRunEmptyID            Code = "RUN_EMPTY_ID"
	CodeRunInvalidFiscalYear  Code = "RUN_INVALID_FISCAL_YEAR"
	CodeRunAlreadyExists      Code = "RUN_ALREADY_EXISTS"
	CodeRunInvalidTaskFilter  Code = "RUN_INVALID_TASK_FILTER"
	CodeRunGenerationDisabled Code = "RUN_GENERATION_DISABLED"

	// Definition errors
	CodeDefinitionInvalid Code = "DEFINITION_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeEntityEmptyID,
		CodeEntityEmptyName,
		CodeRunEmptyID,
		CodeRunInvalidFiscalYear,
		CodeRunInvalidTaskFilter,
		CodeDefinitionInvalid:
		return codes.InvalidArgument

	case CodeRunGenerationDisabled:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeRunAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
