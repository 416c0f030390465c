package campaign

import (
	"time"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/command"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

const (
	EventTypeCreated  event.Type = "campaign.created"
	EventTypeDonated  event.Type = "campaign.donated"
	EventTypeRefunded event.Type = "campaign.refunded"
)

// CreateInput is the caller request for a new campaign.
type CreateInput struct {
	Owner    identity.ID
	Goal     amount.Amount
	Deadline time.Time
	Asset    identity.ID
}

// CreatePayload is recorded by campaign.created.
type CreatePayload struct {
	Owner    identity.ID   `json:"owner"`
	Goal     amount.Amount `json:"goal"`
	Deadline int64         `json:"deadline"`
	Asset    identity.ID   `json:"asset"`
}

// DonationPayload is recorded by campaign.donated and campaign.refunded.
type DonationPayload struct {
	Donor  identity.ID   `json:"donor"`
	Amount amount.Amount `json:"amount"`
}

// DecideCreate validates a new campaign that will receive id.
func DecideCreate(id uint64, in CreateInput, now time.Time) command.Decision {
	if !in.Goal.IsPositive() {
		return command.RejectErr(ErrInvalidGoal)
	}
	// Deadlines are recorded in whole seconds.
	deadline := in.Deadline.Truncate(time.Second)
	if !deadline.After(now) {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeInvalidDeadline,
			Message: ErrInvalidDeadline.Message,
			Metadata: map[string]string{
				"deadline": deadline.UTC().Format(time.RFC3339),
				"now":      now.UTC().Format(time.RFC3339),
			},
		})
	}
	evt, err := event.New(event.CampaignStream(id), EventTypeCreated, in.Owner.String(), now, CreatePayload{
		Owner:    in.Owner,
		Goal:     in.Goal,
		Deadline: deadline.Unix(),
		Asset:    in.Asset,
	})
	if err != nil {
		return command.RejectErr(err)
	}
	return command.Accept(evt)
}

// DecideDonate validates a donation against the current campaign record.
//
// The decision is reached before any value moves, so an accepted donation
// can always be folded once the ledger transfer succeeds.
func DecideDonate(c Campaign, donor identity.ID, value amount.Amount, now time.Time) command.Decision {
	if !value.IsPositive() {
		return command.RejectErr(ErrInvalidAmount)
	}
	if !c.Status(now).AcceptsDonations() {
		return command.RejectErr(ErrEnded)
	}
	if _, err := c.Raised.Add(value); err != nil {
		return command.RejectErr(err)
	}
	if _, err := c.Donation(donor).Add(value); err != nil {
		return command.RejectErr(err)
	}
	evt, err := event.New(event.CampaignStream(c.ID), EventTypeDonated, donor.String(), now, DonationPayload{
		Donor:  donor,
		Amount: value,
	})
	if err != nil {
		return command.RejectErr(err)
	}
	return command.Accept(evt)
}

// DecideRefund validates a refund of the donor's whole contribution.
func DecideRefund(c Campaign, donor identity.ID, now time.Time) command.Decision {
	switch status := c.Status(now); {
	case status == StatusOpen:
		return command.RejectErr(ErrNotEnded)
	case !status.AllowsRefunds():
		return command.RejectErr(ErrGoalReached)
	}
	donation := c.Donation(donor)
	if !donation.IsPositive() {
		return command.RejectErr(ErrNoRefundableDonation)
	}
	evt, err := event.New(event.CampaignStream(c.ID), EventTypeRefunded, donor.String(), now, DonationPayload{
		Donor:  donor,
		Amount: donation,
	})
	if err != nil {
		return command.RejectErr(err)
	}
	return command.Accept(evt)
}
