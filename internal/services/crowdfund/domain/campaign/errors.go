package campaign

import apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"

var (
	// ErrInvalidGoal indicates a non-positive goal.
	ErrInvalidGoal = apperrors.New(apperrors.CodeInvalidGoal, "goal must be positive")
	// ErrInvalidDeadline indicates a deadline not strictly after now.
	ErrInvalidDeadline = apperrors.New(apperrors.CodeInvalidDeadline, "deadline must be in the future")
	// ErrInvalidAmount indicates a non-positive donation.
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidAmount, "donation amount must be positive")
	// ErrNotFound indicates an unknown campaign id.
	ErrNotFound = apperrors.New(apperrors.CodeCampaignNotFound, "campaign not found")
	// ErrEnded indicates a donation at or after the deadline.
	ErrEnded = apperrors.New(apperrors.CodeCampaignEnded, "campaign has ended")
	// ErrNotEnded indicates a refund before the deadline.
	ErrNotEnded = apperrors.New(apperrors.CodeCampaignNotEnded, "campaign has not ended")
	// ErrGoalReached indicates a refund on a successful campaign.
	ErrGoalReached = apperrors.New(apperrors.CodeGoalReached, "goal reached, refunds are disabled")
	// ErrNoRefundableDonation indicates the donor never donated or was already refunded.
	ErrNoRefundableDonation = apperrors.New(apperrors.CodeNoRefundableDonation, "no refundable donation")
)
