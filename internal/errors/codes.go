// Package errors provides structured error handling for the catalog.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Record errors
	CodeRecordInvalidID     Code = "RECORD_INVALID_ID"
	CodeRecordInvalidField  Code = "RECORD_INVALID_FIELD"
	CodeRecordInvalidSeries Code = "RECORD_INVALID_SERIES"
	CodeRecordAnnulled      Code = "RECORD_ANNULLED"

	// Relation errors
	CodeRelationUnknownRole   Code = "RELATION_UNKNOWN_ROLE"
	CodeRelationTargetMissing Code = "RELATION_TARGET_MISSING"
	CodeRelationWrongTable    Code = "RELATION_WRONG_TABLE"
	CodeRelationPatchFailed   Code = "RELATION_PATCH_FAILED"

	// Query errors
	CodeQueryMalformed Code = "QUERY_MALFORMED"
	CodeQueryTooLong   Code = "QUERY_TOO_LONG"

	// Vocabulary errors
	CodeTermNotFound Code = "TERM_NOT_FOUND"

	// User/auth errors
	CodeAuthRequired        Code = "AUTH_REQUIRED"
	CodeBadCredentials      Code = "AUTH_BAD_CREDENTIALS"
	CodeTokenExpired        Code = "AUTH_TOKEN_EXPIRED"
	CodeAuthUnknownProvider Code = "AUTH_UNKNOWN_PROVIDER"
	CodeUserPasswordTooWeak Code = "USER_PASSWORD_TOO_WEAK"
	CodeUserProfileInvalid  Code = "USER_PROFILE_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRecordInvalidID,
		CodeRecordInvalidField,
		CodeRecordInvalidSeries,
		CodeRelationUnknownRole,
		CodeRelationWrongTable,
		CodeQueryMalformed,
		CodeQueryTooLong,
		CodeUserPasswordTooWeak,
		CodeUserProfileInvalid:
		return http.StatusBadRequest

	case CodeAuthRequired,
		CodeBadCredentials,
		CodeTokenExpired:
		return http.StatusUnauthorized

	case CodeNotFound,
		CodeTermNotFound,
		CodeAuthUnknownProvider:
		return http.StatusNotFound

	case CodeRecordAnnulled,
		CodeRelationTargetMissing,
		CodeRelationPatchFailed,
		CodeConflict:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
