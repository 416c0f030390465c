package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/campaign"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/storage"
)

const nextCampaignIDKey = "next_campaign_id"

// NextCampaignID returns the id the next campaign will receive. An empty
// registry starts at 0.
func (s *Store) NextCampaignID(ctx context.Context) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var next int64
	err := s.q.QueryRowContext(ctx, `SELECT value FROM registry WHERE key = ?`, nextCampaignIDKey).Scan(&next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get next campaign id: %w", err)
	}
	if next < 0 {
		return 0, fmt.Errorf("next campaign id %d is invalid", next)
	}
	return uint64(next), nil
}

// PutNextCampaignID stores the counter.
func (s *Store) PutNextCampaignID(ctx context.Context, next uint64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if next > math.MaxInt64 {
		return fmt.Errorf("next campaign id %d exceeds storage range", next)
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO registry (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		nextCampaignIDKey, int64(next),
	)
	if err != nil {
		return fmt.Errorf("put next campaign id: %w", err)
	}
	return nil
}

// GetCampaign loads one campaign with its donations.
func (s *Store) GetCampaign(ctx context.Context, id uint64) (campaign.Campaign, error) {
	if err := s.ready(ctx); err != nil {
		return campaign.Campaign{}, err
	}
	row := s.q.QueryRowContext(ctx,
		`SELECT campaign_id, owner, goal, deadline, asset_id, raised, created_at
		   FROM campaigns
		  WHERE campaign_id = ?`,
		int64(id),
	)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.Campaign{}, storage.ErrNotFound
		}
		return campaign.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	donations, err := s.loadDonations(ctx, id)
	if err != nil {
		return campaign.Campaign{}, err
	}
	c.Donations = donations
	return c, nil
}

// PutCampaign writes the campaign row and its donation rows.
//
// Immutable fields are only written on first insert; later writes update
// raised and the per-donor totals.
func (s *Store) PutCampaign(ctx context.Context, c campaign.Campaign) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if c.ID > math.MaxInt64 {
		return fmt.Errorf("campaign id %d exceeds storage range", c.ID)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	now := s.clock()
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO campaigns (campaign_id, owner, goal, deadline, asset_id, raised, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(campaign_id) DO UPDATE SET
		   raised = excluded.raised,
		   updated_at = excluded.updated_at`,
		int64(c.ID),
		c.Owner.String(),
		c.Goal,
		c.Deadline.UTC().Unix(),
		c.Asset.String(),
		c.Raised,
		toMillis(createdAt),
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("put campaign: %w", err)
	}

	for donor, value := range c.Donations {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO donations (campaign_id, donor, amount)
			 VALUES (?, ?, ?)
			 ON CONFLICT(campaign_id, donor) DO UPDATE SET amount = excluded.amount`,
			int64(c.ID), donor.String(), value,
		)
		if err != nil {
			return fmt.Errorf("put donation: %w", err)
		}
	}
	return nil
}

// ListCampaigns returns every campaign in id order.
func (s *Store) ListCampaigns(ctx context.Context) ([]campaign.Campaign, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT campaign_id, owner, goal, deadline, asset_id, raised, created_at
		   FROM campaigns
		  ORDER BY campaign_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	var campaigns []campaign.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	_ = rows.Close()

	for i := range campaigns {
		donations, err := s.loadDonations(ctx, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
		campaigns[i].Donations = donations
	}
	return campaigns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (campaign.Campaign, error) {
	var (
		c         campaign.Campaign
		id        int64
		owner     string
		deadline  int64
		asset     string
		createdAt int64
	)
	if err := row.Scan(&id, &owner, &c.Goal, &deadline, &asset, &c.Raised, &createdAt); err != nil {
		return campaign.Campaign{}, err
	}
	c.ID = uint64(id)
	c.Owner = identity.ID(owner)
	c.Deadline = time.Unix(deadline, 0).UTC()
	c.Asset = identity.ID(asset)
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

func (s *Store) loadDonations(ctx context.Context, id uint64) (map[identity.ID]amount.Amount, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT donor, amount FROM donations WHERE campaign_id = ?`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	donations := map[identity.ID]amount.Amount{}
	for rows.Next() {
		var (
			donor string
			value amount.Amount
		)
		if err := rows.Scan(&donor, &value); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations[identity.ID(donor)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return donations, nil
}
