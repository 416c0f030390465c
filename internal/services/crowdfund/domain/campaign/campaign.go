package campaign

import (
	"fmt"
	"time"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

var hundred = amount.New(100)

// Campaign is the persisted record of one funding campaign.
//
// Owner, Goal, Deadline and Asset never change after creation. Raised only
// moves through Fold and always equals the sum of Donations.
type Campaign struct {
	ID       uint64
	Owner    identity.ID
	Goal     amount.Amount
	Deadline time.Time
	Asset    identity.ID
	Raised   amount.Amount
	// Donations maps donor to cumulative contribution. A refunded donor keeps
	// a zero entry.
	Donations map[identity.ID]amount.Amount
	CreatedAt time.Time
}

// Donation returns the donor's outstanding contribution, zero when absent.
func (c Campaign) Donation(donor identity.ID) amount.Amount {
	if c.Donations == nil {
		return amount.Zero()
	}
	return c.Donations[donor]
}

// IsEnded reports whether the deadline has been reached. A campaign is ended
// at exactly its deadline.
func (c Campaign) IsEnded(now time.Time) bool {
	return !now.Before(c.Deadline)
}

// IsGoalReached reports whether raised covers a positive goal.
func (c Campaign) IsGoalReached() bool {
	return c.Goal.IsPositive() && c.Raised.GreaterThanOrEqual(c.Goal)
}

// Status derives the lifecycle state at now.
func (c Campaign) Status(now time.Time) Status {
	if !c.IsEnded(now) {
		return StatusOpen
	}
	if c.IsGoalReached() {
		return StatusSucceeded
	}
	return StatusFailed
}

// ProgressPercentage returns raised*100/goal truncated toward zero.
//
// The product saturates at the maximum amount instead of overflowing, a zero
// goal yields 0, and over-funded campaigns report more than 100.
func (c Campaign) ProgressPercentage() amount.Amount {
	if c.Goal.IsZero() {
		return amount.Zero()
	}
	pct, err := c.Raised.SaturatingMul(hundred).Quo(c.Goal)
	if err != nil {
		return amount.Zero()
	}
	return pct
}

// Clone returns a copy that shares no mutable state with c.
func (c Campaign) Clone() Campaign {
	out := c
	out.Donations = make(map[identity.ID]amount.Amount, len(c.Donations))
	for donor, value := range c.Donations {
		out.Donations[donor] = value
	}
	return out
}

// Validate checks the bookkeeping invariants before a record is persisted.
func (c Campaign) Validate() error {
	if c.Owner.IsZero() {
		return fmt.Errorf("campaign %d: owner is required", c.ID)
	}
	if c.Asset.IsZero() {
		return fmt.Errorf("campaign %d: asset is required", c.ID)
	}
	if !c.Goal.IsPositive() {
		return fmt.Errorf("campaign %d: goal must be positive", c.ID)
	}
	if c.Raised.IsNegative() {
		return fmt.Errorf("campaign %d: raised is negative", c.ID)
	}
	sum := amount.Zero()
	for donor, value := range c.Donations {
		if value.IsNegative() {
			return fmt.Errorf("campaign %d: donation of %s is negative", c.ID, donor)
		}
		next, err := sum.Add(value)
		if err != nil {
			return fmt.Errorf("campaign %d: sum donations: %w", c.ID, err)
		}
		sum = next
	}
	if !sum.Equal(c.Raised) {
		return fmt.Errorf("campaign %d: raised %s does not match donations %s", c.ID, c.Raised, sum)
	}
	return nil
}
