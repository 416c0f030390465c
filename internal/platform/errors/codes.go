// Package errors provides structured, coded errors shared by the ledger and
// campaign engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeInvalidGoal     Code = "INVALID_GOAL"
	CodeInvalidDeadline Code = "INVALID_DEADLINE"
	CodeInvalidAmount   Code = "INVALID_AMOUNT"
	CodeInvalidSupply   Code = "INVALID_SUPPLY"
	CodeInvalidIdentity Code = "INVALID_IDENTITY"
	CodeInvalidAsset    Code = "INVALID_ASSET"

	// Campaign state errors
	CodeCampaignNotFound     Code = "CAMPAIGN_NOT_FOUND"
	CodeCampaignEnded        Code = "CAMPAIGN_ENDED"
	CodeCampaignNotEnded     Code = "CAMPAIGN_NOT_ENDED"
	CodeGoalReached          Code = "GOAL_REACHED"
	CodeNoRefundableDonation Code = "NO_REFUNDABLE_DONATION"

	// Ledger state errors
	CodeAlreadyInitialized  Code = "ALREADY_INITIALIZED"
	CodeNotInitialized      Code = "NOT_INITIALIZED"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// Arithmetic errors
	CodeArithmeticOverflow Code = "ARITHMETIC_OVERFLOW"

	// Authorization errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - caller supplied an out-of-domain value
	case CodeInvalidGoal,
		CodeInvalidDeadline,
		CodeInvalidAmount,
		CodeInvalidSupply,
		CodeInvalidIdentity,
		CodeInvalidAsset:
		return codes.InvalidArgument

	// FailedPrecondition - durable state doesn't allow the operation
	case CodeCampaignEnded,
		CodeCampaignNotEnded,
		CodeGoalReached,
		CodeNoRefundableDonation,
		CodeNotInitialized,
		CodeInsufficientBalance:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeCampaignNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyInitialized:
		return codes.AlreadyExists

	case CodeArithmeticOverflow:
		return codes.OutOfRange

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeUnauthorized:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}

// IsValidation reports whether the code describes a caller input error that
// can be retried with corrected input.
func (c Code) IsValidation() bool {
	return c.GRPCCode() == codes.InvalidArgument
}
