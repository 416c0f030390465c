package campaign

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

// Fold applies an event to campaign state and returns the new state.
// The input campaign is not modified.
func Fold(c Campaign, evt event.Event) (Campaign, error) {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Campaign{}, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		id, err := streamID(evt.Stream)
		if err != nil {
			return Campaign{}, err
		}
		return Campaign{
			ID:        id,
			Owner:     payload.Owner,
			Goal:      payload.Goal,
			Deadline:  time.Unix(payload.Deadline, 0).UTC(),
			Asset:     payload.Asset,
			Raised:    amount.Zero(),
			Donations: map[identity.ID]amount.Amount{},
			CreatedAt: evt.Timestamp,
		}, nil

	case EventTypeDonated:
		var payload DonationPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Campaign{}, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		next := c.Clone()
		raised, err := next.Raised.Add(payload.Amount)
		if err != nil {
			return Campaign{}, fmt.Errorf("fold donation: %w", err)
		}
		donation, err := next.Donation(payload.Donor).Add(payload.Amount)
		if err != nil {
			return Campaign{}, fmt.Errorf("fold donation: %w", err)
		}
		next.Raised = raised
		next.Donations[payload.Donor] = donation
		return next, nil

	case EventTypeRefunded:
		var payload DonationPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return Campaign{}, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		next := c.Clone()
		raised, err := next.Raised.Sub(payload.Amount)
		if err != nil {
			return Campaign{}, fmt.Errorf("fold refund: %w", err)
		}
		next.Raised = raised
		next.Donations[payload.Donor] = amount.Zero()
		return next, nil

	default:
		return Campaign{}, fmt.Errorf("fold campaign: unsupported event type %s", evt.Type)
	}
}

// Replay folds an ordered campaign stream from scratch.
func Replay(events []event.Event) (Campaign, error) {
	var c Campaign
	for i, evt := range events {
		if i == 0 && evt.Type != EventTypeCreated {
			return Campaign{}, fmt.Errorf("replay campaign: first event is %s", evt.Type)
		}
		next, err := Fold(c, evt)
		if err != nil {
			return Campaign{}, err
		}
		c = next
	}
	return c, nil
}

func streamID(stream string) (uint64, error) {
	raw, ok := strings.CutPrefix(stream, "campaign/")
	if !ok {
		return 0, fmt.Errorf("stream %q is not a campaign stream", stream)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse campaign stream %q: %w", stream, err)
	}
	return id, nil
}
