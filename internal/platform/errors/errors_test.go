package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := New(CodeCampaignNotFound, "campaign not found")
	b := WithMetadata(CodeCampaignNotFound, "other message", map[string]string{"campaign_id": "1"})
	if !stderrors.Is(b, a) {
		t.Fatal("errors with the same code must match")
	}
	if stderrors.Is(b, New(CodeGoalReached, "goal reached")) {
		t.Fatal("errors with different codes must not match")
	}
	wrapped := fmt.Errorf("donate: %w", b)
	if got := CodeOf(wrapped); got != CodeCampaignNotFound {
		t.Fatalf("CodeOf = %s, want %s", got, CodeCampaignNotFound)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf plain = %s, want %s", got, CodeUnknown)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist campaign", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable")
	}
	if err.Error() != "persist campaign" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeInvalidGoal, codes.InvalidArgument},
		{CodeInvalidDeadline, codes.InvalidArgument},
		{CodeInvalidAmount, codes.InvalidArgument},
		{CodeInvalidSupply, codes.InvalidArgument},
		{CodeCampaignNotFound, codes.NotFound},
		{CodeCampaignEnded, codes.FailedPrecondition},
		{CodeCampaignNotEnded, codes.FailedPrecondition},
		{CodeGoalReached, codes.FailedPrecondition},
		{CodeNoRefundableDonation, codes.FailedPrecondition},
		{CodeAlreadyInitialized, codes.AlreadyExists},
		{CodeInsufficientBalance, codes.FailedPrecondition},
		{CodeArithmeticOverflow, codes.OutOfRange},
		{CodeUnauthenticated, codes.Unauthenticated},
		{CodeUnauthorized, codes.PermissionDenied},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.want {
				t.Fatalf("GRPCCode() = %s, want %s", got, tt.want)
			}
		})
	}
	if !CodeInvalidGoal.IsValidation() || CodeGoalReached.IsValidation() {
		t.Fatal("unexpected IsValidation result")
	}
}

func TestHandleErrorDomain(t *testing.T) {
	err := HandleError(fmt.Errorf("refund: %w", WithMetadata(CodeNoRefundableDonation, "nothing to refund", map[string]string{"donor": "bob"})))
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %s, want FailedPrecondition", st.Code())
	}
	if got := ReasonOf(err); got != CodeNoRefundableDonation {
		t.Fatalf("reason = %s, want %s", got, CodeNoRefundableDonation)
	}
	var info *errdetails.ErrorInfo
	for _, detail := range st.Details() {
		if d, ok := detail.(*errdetails.ErrorInfo); ok {
			info = d
		}
	}
	if info == nil || info.GetDomain() != Domain || info.GetMetadata()["donor"] != "bob" {
		t.Fatalf("error info = %v", info)
	}
}

func TestHandleErrorNonDomain(t *testing.T) {
	if HandleError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	existing := status.Error(codes.Unavailable, "down")
	if got := HandleError(existing); status.Code(got) != codes.Unavailable {
		t.Fatalf("status passthrough = %v", got)
	}
	if got := HandleError(context.Canceled); status.Code(got) != codes.Canceled {
		t.Fatalf("canceled = %v", got)
	}
	if got := HandleError(fmt.Errorf("wait: %w", context.DeadlineExceeded)); status.Code(got) != codes.DeadlineExceeded {
		t.Fatalf("deadline = %v", got)
	}
	got := HandleError(stderrors.New("sqlite: database is locked"))
	if status.Code(got) != codes.Internal {
		t.Fatalf("code = %s, want Internal", status.Code(got))
	}
	if st, _ := status.FromError(got); st.Message() != "an unexpected error occurred" {
		t.Fatalf("message leaked: %q", st.Message())
	}
	if ReasonOf(got) != CodeUnknown || ReasonOf(stderrors.New("x")) != CodeUnknown {
		t.Fatal("reason must be unknown without details")
	}
}
