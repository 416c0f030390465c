// Package crowdfund exposes the asset ledger and campaign engine over gRPC.
//
// Requests and responses are google.protobuf.Struct messages keyed by the
// field names documented on each handler.
package crowdfund

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/grpc/pagination"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/core/filter"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/campaign"
	domainledger "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/ledger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/engine"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/ledger"
)

const (
	defaultListEventsPageSize = 50
	maxListEventsPageSize     = 500

	orderCampaignID     = "campaign_id"
	orderCampaignIDDesc = "campaign_id desc"
)

var listCampaignsOrder = pagination.OrderByConfig{
	Default: orderCampaignID,
	Allowed: []string{orderCampaignID, orderCampaignIDDesc},
}

// Service implements CrowdfundServer.
type Service struct {
	ledger *ledger.Service
	engine *engine.Engine
}

// NewService creates a Service over the ledger and engine.
func NewService(ledgerSvc *ledger.Service, eng *engine.Engine) (*Service, error) {
	if ledgerSvc == nil {
		return nil, errors.New("ledger service is required")
	}
	if eng == nil {
		return nil, errors.New("campaign engine is required")
	}
	return &Service{ledger: ledgerSvc, engine: eng}, nil
}

// InitializeAsset takes asset, admin, name, symbol and total_supply.
func (s *Service) InitializeAsset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := identityField(in, "asset")
	if err != nil {
		return nil, err
	}
	admin, err := identityField(in, "admin")
	if err != nil {
		return nil, err
	}
	supply, err := amountField(in, "total_supply")
	if err != nil {
		return nil, err
	}
	asset, err := s.ledger.Initialize(ctx, domainledger.InitializeInput{
		Asset:       assetID,
		Admin:       admin,
		Name:        stringField(in, "name"),
		Symbol:      stringField(in, "symbol"),
		TotalSupply: supply,
	})
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(assetFields(asset))
}

// GetAsset takes asset.
func (s *Service) GetAsset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := identityField(in, "asset")
	if err != nil {
		return nil, err
	}
	asset, err := s.ledger.Asset(ctx, assetID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(assetFields(asset))
}

// GetBalance takes asset and holder.
func (s *Service) GetBalance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := identityField(in, "asset")
	if err != nil {
		return nil, err
	}
	holder, err := identityField(in, "holder")
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Balance(ctx, assetID, holder)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{
		"asset":   assetID.String(),
		"holder":  holder.String(),
		"balance": balance.String(),
	})
}

// Transfer takes asset, from, to and amount, and answers with both balances.
func (s *Service) Transfer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := identityField(in, "asset")
	if err != nil {
		return nil, err
	}
	from, err := identityField(in, "from")
	if err != nil {
		return nil, err
	}
	to, err := identityField(in, "to")
	if err != nil {
		return nil, err
	}
	value, err := amountField(in, "amount")
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Transfer(ctx, domainledger.TransferInput{Asset: assetID, From: from, To: to, Amount: value}); err != nil {
		return nil, handleDomainError(err)
	}
	fromBalance, err := s.ledger.Balance(ctx, assetID, from)
	if err != nil {
		return nil, handleDomainError(err)
	}
	toBalance, err := s.ledger.Balance(ctx, assetID, to)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{
		"from_balance": fromBalance.String(),
		"to_balance":   toBalance.String(),
	})
}

// CreateCampaign takes owner, goal, deadline (unix seconds) and asset.
func (s *Service) CreateCampaign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner, err := identityField(in, "owner")
	if err != nil {
		return nil, err
	}
	goal, err := amountField(in, "goal")
	if err != nil {
		return nil, err
	}
	deadline, err := unixField(in, "deadline")
	if err != nil {
		return nil, err
	}
	assetID, err := identityField(in, "asset")
	if err != nil {
		return nil, err
	}
	id, err := s.engine.Create(ctx, campaign.CreateInput{Owner: owner, Goal: goal, Deadline: deadline, Asset: assetID})
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{"campaign_id": formatID(id)})
}

// Donate takes campaign_id, donor and amount, and answers with the campaign.
func (s *Service) Donate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	donor, err := identityField(in, "donor")
	if err != nil {
		return nil, err
	}
	value, err := amountField(in, "amount")
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Donate(ctx, id, donor, value); err != nil {
		return nil, handleDomainError(err)
	}
	return s.campaignResponse(ctx, id)
}

// Refund takes campaign_id and donor, and answers with the refunded amount.
func (s *Service) Refund(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	donor, err := identityField(in, "donor")
	if err != nil {
		return nil, err
	}
	refunded, err := s.engine.Refund(ctx, id, donor)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{
		"campaign_id": formatID(id),
		"donor":       donor.String(),
		"refunded":    refunded.String(),
	})
}

// GetCampaign takes campaign_id.
func (s *Service) GetCampaign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	return s.campaignResponse(ctx, id)
}

func (s *Service) campaignResponse(ctx context.Context, id uint64) (*structpb.Struct, error) {
	snapshot, err := s.engine.Snapshot(ctx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(snapshotFields(snapshot))
}

// ListCampaigns takes an optional order_by ("campaign_id" or
// "campaign_id desc") and an AIP-160 filter over campaign_id, owner, asset,
// status, deadline and created_at. Every matching campaign is returned.
func (s *Service) ListCampaigns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	orderBy, err := pagination.NormalizeOrderBy(stringField(in, "order_by"), listCampaignsOrder)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	match, err := filter.ParseCampaignFilter(stringField(in, "filter"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid filter: %v", err)
	}

	snapshots, err := s.engine.ListCampaigns(ctx)
	if err != nil {
		return nil, handleDomainError(err)
	}
	if orderBy == orderCampaignIDDesc {
		slices.Reverse(snapshots)
	}
	items := make([]any, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if !match(campaignRecord(snapshot)) {
			continue
		}
		items = append(items, snapshotFields(snapshot))
	}
	return newStruct(map[string]any{"campaigns": items})
}

// GetDonation takes campaign_id and donor.
func (s *Service) GetDonation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	donor, err := identityField(in, "donor")
	if err != nil {
		return nil, err
	}
	donation, err := s.engine.Donation(ctx, id, donor)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{
		"campaign_id": formatID(id),
		"donor":       donor.String(),
		"donation":    donation.String(),
	})
}

// GetProgress takes campaign_id and answers with the integer progress
// percentage, which exceeds 100 for over-funded campaigns.
func (s *Service) GetProgress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	progress, err := s.engine.ProgressPercentage(ctx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{
		"campaign_id":         formatID(id),
		"progress_percentage": progress.String(),
	})
}

// GetNextCampaignID takes no fields.
func (s *Service) GetNextCampaignID(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	next, err := s.engine.NextID(ctx)
	if err != nil {
		return nil, handleDomainError(err)
	}
	return newStruct(map[string]any{"next_campaign_id": formatID(next)})
}

// ListCampaignEvents takes campaign_id, optional page_size and page_token,
// the first journal seq to include. next_page_token is empty on the last
// page.
func (s *Service) ListCampaignEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	pageSize := pagination.ClampPageSize(intField(in, "page_size"), pagination.PageSizeConfig{
		Default: defaultListEventsPageSize,
		Max:     maxListEventsPageSize,
	})
	var start uint64
	if stringField(in, "page_token") != "" {
		start, err = pageTokenField(in)
		if err != nil {
			return nil, err
		}
	}

	events, err := s.engine.Events(ctx, id)
	if err != nil {
		return nil, handleDomainError(err)
	}
	items := make([]any, 0, min(pageSize, len(events)))
	nextToken := ""
	for _, evt := range events {
		if evt.Seq < start {
			continue
		}
		if len(items) == pageSize {
			nextToken = strconv.FormatUint(evt.Seq, 10)
			break
		}
		fields, err := eventFields(evt)
		if err != nil {
			return nil, err
		}
		items = append(items, fields)
	}
	return newStruct(map[string]any{
		"events":          items,
		"next_page_token": nextToken,
	})
}

// ListBalances takes asset and answers with every recorded holder ordered by
// identity.
func (s *Service) ListBalances(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := identityField(in, "asset")
	if err != nil {
		return nil, err
	}
	balances, err := s.ledger.Balances(ctx, assetID)
	if err != nil {
		return nil, handleDomainError(err)
	}
	items := make([]any, 0, len(balances))
	for _, b := range balances {
		items = append(items, map[string]any{
			"holder":  b.Holder.String(),
			"balance": b.Amount.String(),
		})
	}
	return newStruct(map[string]any{
		"asset":    assetID.String(),
		"balances": items,
	})
}

// AuditCampaign takes campaign_id and checks the journal hash chain and its
// replay against the stored record. A disagreement is reported in the
// response rather than as an RPC error.
func (s *Service) AuditCampaign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := campaignIDField(in)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"campaign_id": formatID(id), "verified": true}
	if err := s.engine.Audit(ctx, id); err != nil {
		if !errors.Is(err, engine.ErrJournalMismatch) {
			return nil, handleDomainError(err)
		}
		out["verified"] = false
		out["problem"] = err.Error()
	}
	return newStruct(out)
}

func pageTokenField(in *structpb.Struct) (uint64, error) {
	seq, err := strconv.ParseUint(stringField(in, "page_token"), 10, 64)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, "page_token is invalid")
	}
	return seq, nil
}

func handleDomainError(err error) error {
	return apperrors.HandleError(err)
}
