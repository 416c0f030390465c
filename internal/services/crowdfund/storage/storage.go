// Package storage defines persistence contracts for ledger and campaign state.
//
// Every public write runs inside one Tx, so ledger balances, campaign
// bookkeeping and journal events commit together or not at all.
package storage

import (
	"context"
	"errors"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/campaign"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/ledger"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a create-only record is already present.
	ErrAlreadyExists = errors.New("record already exists")
)

// Balance is one holder's balance of an asset.
type Balance struct {
	Holder identity.ID
	Amount amount.Amount
}

// AssetStore persists asset metadata and balances.
type AssetStore interface {
	GetAsset(ctx context.Context, assetID identity.ID) (ledger.Asset, error)
	// CreateAsset returns ErrAlreadyExists when the asset is initialized.
	CreateAsset(ctx context.Context, asset ledger.Asset) error
	// GetBalance returns zero for holders with no record.
	GetBalance(ctx context.Context, assetID, holder identity.ID) (amount.Amount, error)
	PutBalance(ctx context.Context, assetID, holder identity.ID, value amount.Amount) error
	ListBalances(ctx context.Context, assetID identity.ID) ([]Balance, error)
}

// CampaignStore persists the campaign registry.
type CampaignStore interface {
	// NextCampaignID returns the id the next create will receive.
	NextCampaignID(ctx context.Context) (uint64, error)
	PutNextCampaignID(ctx context.Context, next uint64) error
	GetCampaign(ctx context.Context, id uint64) (campaign.Campaign, error)
	PutCampaign(ctx context.Context, c campaign.Campaign) error
	ListCampaigns(ctx context.Context) ([]campaign.Campaign, error)
}

// EventStore persists the append-only journal.
type EventStore interface {
	// AppendEvents assigns sequence and hash fields and returns the stored events.
	AppendEvents(ctx context.Context, events ...event.Event) ([]event.Event, error)
	ListEvents(ctx context.Context, stream string) ([]event.Event, error)
}

// Tx is the unit of work for a single public operation.
type Tx interface {
	AssetStore
	CampaignStore
	EventStore
}

// Store opens transactions and serves reads outside them.
type Store interface {
	Tx
	// InTx runs fn in one transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
