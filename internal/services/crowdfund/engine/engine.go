// Package engine runs crowdfunding campaigns on top of the asset ledger.
//
// Donations move value from the donor into the engine's own escrow identity;
// refunds of failed campaigns move it back. Each write runs as one storage
// transaction spanning the ledger transfer, the campaign record and the
// journal, and writes are serialized process-wide.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/logger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/campaign"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	domainledger "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/ledger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/ledger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/storage"
)

const tracerName = "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/engine"

var (
	// ErrInvalidAsset indicates a campaign was created without an asset.
	ErrInvalidAsset = apperrors.New(apperrors.CodeInvalidAsset, "campaign asset is required")
	// ErrEscrowDonor indicates the escrow identity was named as a donor.
	ErrEscrowDonor = apperrors.New(apperrors.CodeInvalidIdentity, "escrow identity cannot donate or be refunded")
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine is the campaign engine.
type Engine struct {
	store  storage.Store
	ledger *ledger.Service
	authz  auth.Authorizer
	self   identity.ID
	log    *logger.Logger
	now    func() time.Time
	tracer trace.Tracer

	// mu serializes writes so each one observes the previous commit.
	mu sync.Mutex
}

// New builds an engine escrowing donations under self.
func New(store storage.Store, ledgerSvc *ledger.Service, authz auth.Authorizer, self identity.ID, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if ledgerSvc == nil {
		return nil, errors.New("ledger service is required")
	}
	if authz == nil {
		return nil, errors.New("authorizer is required")
	}
	if self.IsZero() {
		return nil, errors.New("engine identity is required")
	}
	e := &Engine{
		store:  store,
		ledger: ledgerSvc,
		authz:  authz,
		self:   self,
		log:    logger.Nop(),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "engine", "engine_identity", self.String())
	return e, nil
}

// Identity returns the escrow identity that holds donated funds.
func (e *Engine) Identity() identity.ID {
	return e.self
}

// Create registers a campaign and returns its id. Ids start at 0 and are
// never reused.
func (e *Engine) Create(ctx context.Context, in campaign.CreateInput) (_ uint64, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.Create", trace.WithAttributes(
		attribute.String("campaign.owner", in.Owner.String()),
		attribute.String("campaign.asset", in.Asset.String()),
		attribute.String("campaign.goal", in.Goal.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := e.authz.RequireAuth(ctx, in.Owner); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var id uint64
	err = e.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		next, err := tx.NextCampaignID(ctx)
		if err != nil {
			return fmt.Errorf("load next campaign id: %w", err)
		}
		decision := campaign.DecideCreate(next, in, now)
		if err := decision.Err(); err != nil {
			return err
		}
		if in.Asset.IsZero() {
			return ErrInvalidAsset
		}
		if next == math.MaxUint64 {
			return amount.ErrOverflow
		}

		stored, err := tx.AppendEvents(ctx, decision.Events...)
		if err != nil {
			return fmt.Errorf("append create event: %w", err)
		}
		created, err := campaign.Fold(campaign.Campaign{}, stored[0])
		if err != nil {
			return err
		}
		if err := tx.PutCampaign(ctx, created); err != nil {
			return fmt.Errorf("put campaign: %w", err)
		}
		if err := tx.PutNextCampaignID(ctx, next+1); err != nil {
			return fmt.Errorf("advance campaign id: %w", err)
		}
		id = created.ID
		return nil
	})
	if err != nil {
		e.log.Warn("create rejected", "owner", in.Owner, "goal", in.Goal.String(), "error", err)
		return 0, err
	}
	span.SetAttributes(attribute.String("campaign.id", strconv.FormatUint(id, 10)))
	e.log.Info("campaign created", "campaign_id", id, "owner", in.Owner, "goal", in.Goal.String(), "deadline", in.Deadline.UTC().Unix(), "asset", in.Asset)
	return id, nil
}

// Donate moves value from donor into escrow and records it against the
// campaign. Ledger errors propagate unchanged and leave no state behind.
func (e *Engine) Donate(ctx context.Context, id uint64, donor identity.ID, value amount.Amount) (_ campaign.Campaign, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.Donate", trace.WithAttributes(
		attribute.String("campaign.id", strconv.FormatUint(id, 10)),
		attribute.String("donation.donor", donor.String()),
		attribute.String("donation.amount", value.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := e.authz.RequireAuth(ctx, donor); err != nil {
		return campaign.Campaign{}, err
	}
	if donor == e.self {
		return campaign.Campaign{}, ErrEscrowDonor
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var updated campaign.Campaign
	err = e.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		current, err := loadCampaign(ctx, tx, id)
		if err != nil {
			return err
		}
		decision := campaign.DecideDonate(current, donor, value, now)
		if err := decision.Err(); err != nil {
			return err
		}

		if err := e.ledger.Bind(tx).Transfer(ctx, domainledger.TransferInput{
			Asset:  current.Asset,
			From:   donor,
			To:     e.self,
			Amount: value,
		}); err != nil {
			return err
		}

		updated, err = e.commit(ctx, tx, current, decision.Events)
		return err
	})
	if err != nil {
		e.log.Warn("donation rejected", "campaign_id", id, "donor", donor, "amount", value.String(), "error", err)
		return campaign.Campaign{}, err
	}
	e.log.Info("donation committed", "campaign_id", id, "donor", donor, "amount", value.String(), "raised", updated.Raised.String())
	return updated, nil
}

// Refund returns the donor's whole contribution to a failed campaign. The
// bookkeeping and the outbound transfer commit together.
func (e *Engine) Refund(ctx context.Context, id uint64, donor identity.ID) (_ amount.Amount, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.Refund", trace.WithAttributes(
		attribute.String("campaign.id", strconv.FormatUint(id, 10)),
		attribute.String("refund.donor", donor.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := e.authz.RequireAuth(ctx, donor); err != nil {
		return amount.Amount{}, err
	}
	if donor == e.self {
		return amount.Amount{}, ErrEscrowDonor
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var refunded amount.Amount
	err = e.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		current, err := loadCampaign(ctx, tx, id)
		if err != nil {
			return err
		}
		decision := campaign.DecideRefund(current, donor, now)
		if err := decision.Err(); err != nil {
			return err
		}
		refunded = current.Donation(donor)

		if _, err := e.commit(ctx, tx, current, decision.Events); err != nil {
			return err
		}
		return e.ledger.Bind(tx).Transfer(auth.WithInvoker(ctx, e.self), domainledger.TransferInput{
			Asset:  current.Asset,
			From:   e.self,
			To:     donor,
			Amount: refunded,
		})
	})
	if err != nil {
		e.log.Warn("refund rejected", "campaign_id", id, "donor", donor, "error", err)
		return amount.Amount{}, err
	}
	span.SetAttributes(attribute.String("refund.amount", refunded.String()))
	e.log.Info("refund committed", "campaign_id", id, "donor", donor, "amount", refunded.String())
	return refunded, nil
}

// commit journals accepted events, folds them and persists the result.
func (e *Engine) commit(ctx context.Context, tx storage.Tx, current campaign.Campaign, events []event.Event) (campaign.Campaign, error) {
	stored, err := tx.AppendEvents(ctx, events...)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("append campaign events: %w", err)
	}
	next := current
	for _, evt := range stored {
		next, err = campaign.Fold(next, evt)
		if err != nil {
			return campaign.Campaign{}, err
		}
	}
	if err := tx.PutCampaign(ctx, next); err != nil {
		return campaign.Campaign{}, fmt.Errorf("put campaign: %w", err)
	}
	return next, nil
}

func loadCampaign(ctx context.Context, tx storage.Tx, id uint64) (campaign.Campaign, error) {
	c, err := tx.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return campaign.Campaign{}, apperrors.WithMetadata(campaign.ErrNotFound.Code, campaign.ErrNotFound.Message, map[string]string{
				"campaign_id": strconv.FormatUint(id, 10),
			})
		}
		return campaign.Campaign{}, fmt.Errorf("load campaign: %w", err)
	}
	return c, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
