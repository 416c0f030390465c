package errors

import (
	"context"
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HandleError converts err into a gRPC status error.
//
// Domain errors keep their code and metadata in ErrorInfo details. Errors
// that already carry a status pass through, context errors map to their gRPC
// equivalents and everything else is reported as internal without leaking
// the cause.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.ToGRPCStatus()
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request deadline exceeded")
	}

	// Unknown error - return internal with generic message
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// ReasonOf returns the domain code carried in a gRPC status's ErrorInfo
// details, or CodeUnknown.
func ReasonOf(err error) Code {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return CodeUnknown
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(interface{ GetReason() string }); ok && info.GetReason() != "" {
			return Code(info.GetReason())
		}
	}
	return CodeUnknown
}
