// Package ledger serves asset ledgers: one-time initialization, balance reads
// and authorized, conservation-safe transfers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/logger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	domain "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/ledger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/storage"
)

const tracerName = "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/ledger"

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service is the asset ledger.
type Service struct {
	store  storage.Store
	tx     storage.Tx
	authz  auth.Authorizer
	log    *logger.Logger
	now    func() time.Time
	tracer trace.Tracer
}

// New builds a ledger service over store.
func New(store storage.Store, authz auth.Authorizer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		authz:  authz,
		log:    logger.Nop(),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "ledger")
	return s
}

// Bind returns a copy whose reads and writes run inside tx. The caller owns
// commit and rollback.
func (s *Service) Bind(tx storage.Tx) *Service {
	bound := *s
	bound.tx = tx
	return &bound
}

// Initialize creates asset metadata and credits admin with the full supply.
func (s *Service) Initialize(ctx context.Context, in domain.InitializeInput) (_ domain.Asset, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Initialize", trace.WithAttributes(
		attribute.String("asset.id", in.Asset.String()),
		attribute.String("asset.admin", in.Admin.String()),
	))
	defer func() { endSpan(span, err) }()

	if in.Asset.IsZero() {
		return domain.Asset{}, identity.ErrInvalid
	}
	if err := s.authz.RequireAuth(ctx, in.Admin); err != nil {
		return domain.Asset{}, err
	}

	var asset domain.Asset
	err = s.inTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		initialized := true
		if _, err := tx.GetAsset(ctx, in.Asset); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("load asset: %w", err)
			}
			initialized = false
		}

		decision := domain.DecideInitialize(initialized, in, s.now())
		if err := decision.Err(); err != nil {
			return err
		}
		stored, err := tx.AppendEvents(ctx, decision.Events...)
		if err != nil {
			return fmt.Errorf("append initialize event: %w", err)
		}
		folded, err := domain.FoldInitialize(in.Asset, stored[0])
		if err != nil {
			return err
		}
		if err := tx.CreateAsset(ctx, folded); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return domain.ErrAlreadyInitialized
			}
			return fmt.Errorf("create asset: %w", err)
		}
		if err := tx.PutBalance(ctx, folded.ID, folded.Admin, folded.TotalSupply); err != nil {
			return fmt.Errorf("credit admin: %w", err)
		}
		asset = folded
		return nil
	})
	if err != nil {
		s.log.Warn("initialize rejected", "asset", in.Asset, "admin", in.Admin, "error", err)
		return domain.Asset{}, err
	}
	s.log.Info("asset initialized", "asset", asset.ID, "admin", asset.Admin, "symbol", asset.Symbol, "total_supply", asset.TotalSupply.String())
	return asset, nil
}

// Balance returns holder's balance, zero for holders with no record.
func (s *Service) Balance(ctx context.Context, assetID, holder identity.ID) (amount.Amount, error) {
	return s.reader().GetBalance(ctx, assetID, holder)
}

// Transfer moves value from in.From to in.To after authorizing in.From.
func (s *Service) Transfer(ctx context.Context, in domain.TransferInput) (err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer", trace.WithAttributes(
		attribute.String("asset.id", in.Asset.String()),
		attribute.String("transfer.from", in.From.String()),
		attribute.String("transfer.to", in.To.String()),
		attribute.String("transfer.amount", in.Amount.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := s.authz.RequireAuth(ctx, in.From); err != nil {
		return err
	}
	if in.To.IsZero() {
		return identity.ErrInvalid
	}
	if !in.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	err = s.inTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetAsset(ctx, in.Asset); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domain.ErrNotInitialized
			}
			return fmt.Errorf("load asset: %w", err)
		}
		fromBalance, err := tx.GetBalance(ctx, in.Asset, in.From)
		if err != nil {
			return fmt.Errorf("load sender balance: %w", err)
		}
		toBalance, err := tx.GetBalance(ctx, in.Asset, in.To)
		if err != nil {
			return fmt.Errorf("load recipient balance: %w", err)
		}

		decision := domain.DecideTransfer(in, fromBalance, toBalance, s.now())
		if err := decision.Err(); err != nil {
			return err
		}
		stored, err := tx.AppendEvents(ctx, decision.Events...)
		if err != nil {
			return fmt.Errorf("append transfer event: %w", err)
		}
		payload, err := domain.DecodeTransfer(stored[0])
		if err != nil {
			return err
		}
		nextFrom, nextTo, err := domain.ApplyTransfer(fromBalance, toBalance, payload)
		if err != nil {
			return err
		}
		if err := tx.PutBalance(ctx, in.Asset, in.From, nextFrom); err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}
		if in.From != in.To {
			if err := tx.PutBalance(ctx, in.Asset, in.To, nextTo); err != nil {
				return fmt.Errorf("credit recipient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("transfer rejected", "asset", in.Asset, "from", in.From, "to", in.To, "amount", in.Amount.String(), "error", err)
		return err
	}
	s.log.Info("transfer committed", "asset", in.Asset, "from", in.From, "to", in.To, "amount", in.Amount.String())
	return nil
}

// Asset returns the asset metadata or ErrNotInitialized.
func (s *Service) Asset(ctx context.Context, assetID identity.ID) (domain.Asset, error) {
	asset, err := s.reader().GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Asset{}, domain.ErrNotInitialized
		}
		return domain.Asset{}, fmt.Errorf("load asset: %w", err)
	}
	return asset, nil
}

// Name returns the asset display name.
func (s *Service) Name(ctx context.Context, assetID identity.ID) (string, error) {
	asset, err := s.Asset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return asset.Name, nil
}

// Symbol returns the asset ticker symbol.
func (s *Service) Symbol(ctx context.Context, assetID identity.ID) (string, error) {
	asset, err := s.Asset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return asset.Symbol, nil
}

// Decimals returns the asset precision, always 7 once initialized.
func (s *Service) Decimals(ctx context.Context, assetID identity.ID) (uint32, error) {
	asset, err := s.Asset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return asset.Decimals, nil
}

// TotalSupply returns the supply minted at initialization.
func (s *Service) TotalSupply(ctx context.Context, assetID identity.ID) (amount.Amount, error) {
	asset, err := s.Asset(ctx, assetID)
	if err != nil {
		return amount.Amount{}, err
	}
	return asset.TotalSupply, nil
}

// Balances lists every recorded holder of an asset.
func (s *Service) Balances(ctx context.Context, assetID identity.ID) ([]storage.Balance, error) {
	if _, err := s.Asset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.reader().ListBalances(ctx, assetID)
}

func (s *Service) reader() storage.Tx {
	if s.tx != nil {
		return s.tx
	}
	return s.store
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if s.tx != nil {
		return fn(ctx, s.tx)
	}
	if s.store == nil {
		return fmt.Errorf("ledger store is not configured")
	}
	return s.store.InTx(ctx, fn)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
