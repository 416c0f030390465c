package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/ledger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/storage"
)

// GetAsset returns asset metadata or storage.ErrNotFound.
func (s *Store) GetAsset(ctx context.Context, assetID identity.ID) (ledger.Asset, error) {
	if err := s.ready(ctx); err != nil {
		return ledger.Asset{}, err
	}
	if assetID.IsZero() {
		return ledger.Asset{}, fmt.Errorf("asset id is required")
	}

	var (
		asset     ledger.Asset
		id        string
		admin     string
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT asset_id, admin, name, symbol, decimals, total_supply, created_at
		   FROM assets
		  WHERE asset_id = ?`,
		assetID.String(),
	).Scan(&id, &admin, &asset.Name, &asset.Symbol, &asset.Decimals, &asset.TotalSupply, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Asset{}, storage.ErrNotFound
		}
		return ledger.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	asset.ID = identity.ID(id)
	asset.Admin = identity.ID(admin)
	asset.CreatedAt = fromMillis(createdAt)
	return asset, nil
}

// CreateAsset inserts asset metadata once.
func (s *Store) CreateAsset(ctx context.Context, asset ledger.Asset) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if asset.ID.IsZero() {
		return fmt.Errorf("asset id is required")
	}
	if asset.Admin.IsZero() {
		return fmt.Errorf("asset admin is required")
	}
	createdAt := asset.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO assets (asset_id, admin, name, symbol, decimals, total_supply, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		asset.ID.String(),
		asset.Admin.String(),
		asset.Name,
		asset.Symbol,
		asset.Decimals,
		asset.TotalSupply,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

// GetBalance returns the holder's balance, zero when no row exists.
func (s *Store) GetBalance(ctx context.Context, assetID, holder identity.ID) (amount.Amount, error) {
	if err := s.ready(ctx); err != nil {
		return amount.Amount{}, err
	}
	var value amount.Amount
	err := s.q.QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE asset_id = ? AND holder = ?`,
		assetID.String(), holder.String(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return amount.Zero(), nil
		}
		return amount.Amount{}, fmt.Errorf("get balance: %w", err)
	}
	return value, nil
}

// PutBalance writes the holder's balance.
func (s *Store) PutBalance(ctx context.Context, assetID, holder identity.ID, value amount.Amount) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if assetID.IsZero() || holder.IsZero() {
		return fmt.Errorf("asset id and holder are required")
	}
	if value.IsNegative() {
		return fmt.Errorf("balance of %s must not be negative", holder)
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO balances (asset_id, holder, amount, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(asset_id, holder) DO UPDATE SET
		   amount = excluded.amount,
		   updated_at = excluded.updated_at`,
		assetID.String(), holder.String(), value, toMillis(s.clock()),
	)
	if err != nil {
		return fmt.Errorf("put balance: %w", err)
	}
	return nil
}

// ListBalances returns every recorded balance of an asset ordered by holder.
func (s *Store) ListBalances(ctx context.Context, assetID identity.ID) ([]storage.Balance, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT holder, amount FROM balances WHERE asset_id = ? ORDER BY holder`,
		assetID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var balances []storage.Balance
	for rows.Next() {
		var (
			holder string
			value  amount.Amount
		)
		if err := rows.Scan(&holder, &value); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, storage.Balance{Holder: identity.ID(holder), Amount: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return balances, nil
}
