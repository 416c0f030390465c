package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/campaign"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

// Snapshot is a campaign read together with the values derived from one
// clock reading.
type Snapshot struct {
	Campaign    campaign.Campaign
	Status      campaign.Status
	Ended       bool
	GoalReached bool
	Progress    amount.Amount
	ObservedAt  time.Time
}

// Campaign returns the stored campaign record.
func (e *Engine) Campaign(ctx context.Context, id uint64) (campaign.Campaign, error) {
	return loadCampaign(ctx, e.store, id)
}

// Snapshot returns the campaign with its status evaluated at the current time.
func (e *Engine) Snapshot(ctx context.Context, id uint64) (Snapshot, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return e.snapshot(c, e.now()), nil
}

func (e *Engine) snapshot(c campaign.Campaign, now time.Time) Snapshot {
	return Snapshot{
		Campaign:    c,
		Status:      c.Status(now),
		Ended:       c.IsEnded(now),
		GoalReached: c.IsGoalReached(),
		Progress:    c.ProgressPercentage(),
		ObservedAt:  now.UTC(),
	}
}

// TotalRaised returns the campaign's outstanding raised amount.
func (e *Engine) TotalRaised(ctx context.Context, id uint64) (amount.Amount, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return amount.Amount{}, err
	}
	return c.Raised, nil
}

// Donation returns donor's cumulative contribution, zero when none.
func (e *Engine) Donation(ctx context.Context, id uint64, donor identity.ID) (amount.Amount, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return amount.Amount{}, err
	}
	return c.Donation(donor), nil
}

func (e *Engine) Goal(ctx context.Context, id uint64) (amount.Amount, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return amount.Amount{}, err
	}
	return c.Goal, nil
}

func (e *Engine) Deadline(ctx context.Context, id uint64) (time.Time, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return c.Deadline, nil
}

func (e *Engine) IsGoalReached(ctx context.Context, id uint64) (bool, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return false, err
	}
	return c.IsGoalReached(), nil
}

// IsEnded reports whether the deadline has been reached at the current time.
func (e *Engine) IsEnded(ctx context.Context, id uint64) (bool, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return false, err
	}
	return c.IsEnded(e.now()), nil
}

// Status returns the derived lifecycle state at the current time.
func (e *Engine) Status(ctx context.Context, id uint64) (campaign.Status, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return campaign.StatusUnspecified, err
	}
	return c.Status(e.now()), nil
}

// ProgressPercentage returns raised*100/goal, unbounded above 100.
func (e *Engine) ProgressPercentage(ctx context.Context, id uint64) (amount.Amount, error) {
	c, err := e.Campaign(ctx, id)
	if err != nil {
		return amount.Amount{}, err
	}
	return c.ProgressPercentage(), nil
}

// NextID returns the id the next created campaign will receive.
func (e *Engine) NextID(ctx context.Context) (uint64, error) {
	next, err := e.store.NextCampaignID(ctx)
	if err != nil {
		return 0, fmt.Errorf("load next campaign id: %w", err)
	}
	return next, nil
}

// ListCampaigns returns every campaign in id order, evaluated at one clock
// reading.
func (e *Engine) ListCampaigns(ctx context.Context) ([]Snapshot, error) {
	campaigns, err := e.store.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	now := e.now()
	out := make([]Snapshot, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, e.snapshot(c, now))
	}
	return out, nil
}

// Events returns the campaign's journal in sequence order.
func (e *Engine) Events(ctx context.Context, id uint64) ([]event.Event, error) {
	if _, err := e.Campaign(ctx, id); err != nil {
		return nil, err
	}
	events, err := e.store.ListEvents(ctx, event.CampaignStream(id))
	if err != nil {
		return nil, fmt.Errorf("list campaign events: %w", err)
	}
	return events, nil
}

// ErrJournalMismatch marks an audit that found the journal and the stored
// campaign record disagreeing.
var ErrJournalMismatch = errors.New("campaign journal does not match record")

// Audit verifies the campaign journal's hash chain and that replaying it
// reproduces the stored record. Disagreements wrap ErrJournalMismatch.
func (e *Engine) Audit(ctx context.Context, id uint64) error {
	stored, err := e.Campaign(ctx, id)
	if err != nil {
		return err
	}
	events, err := e.store.ListEvents(ctx, event.CampaignStream(id))
	if err != nil {
		return fmt.Errorf("list campaign events: %w", err)
	}
	if err := event.VerifyChain(events); err != nil {
		return fmt.Errorf("%w: campaign %d chain: %w", ErrJournalMismatch, id, err)
	}
	replayed, err := campaign.Replay(events)
	if err != nil {
		return fmt.Errorf("%w: campaign %d replay: %w", ErrJournalMismatch, id, err)
	}
	if !replayed.Raised.Equal(stored.Raised) {
		return fmt.Errorf("%w: campaign %d raised %s, stored %s", ErrJournalMismatch, id, replayed.Raised, stored.Raised)
	}
	for donor, value := range stored.Donations {
		if !replayed.Donation(donor).Equal(value) {
			return fmt.Errorf("%w: campaign %d donation of %s is %s, stored %s", ErrJournalMismatch, id, donor, replayed.Donation(donor), value)
		}
	}
	return nil
}
