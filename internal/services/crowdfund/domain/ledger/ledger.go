// Package ledger holds the pure rules of a named, decimal-denominated asset:
// one-time initialization and conservation-safe transfers between holders.
//
// Storage and authorization live elsewhere; deciders here only see balances
// the caller loaded and return events describing what changed.
package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/command"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

// Decimals is fixed for every asset.
const Decimals uint32 = 7

const (
	EventTypeInitialized event.Type = "asset.initialized"
	EventTypeTransferred event.Type = "asset.transferred"
)

var (
	// ErrInvalidSupply indicates a non-positive total supply.
	ErrInvalidSupply = apperrors.New(apperrors.CodeInvalidSupply, "total supply must be positive")
	// ErrAlreadyInitialized indicates asset metadata already exists.
	ErrAlreadyInitialized = apperrors.New(apperrors.CodeAlreadyInitialized, "asset is already initialized")
	// ErrNotInitialized indicates metadata was read before initialize.
	ErrNotInitialized = apperrors.New(apperrors.CodeNotInitialized, "asset is not initialized")
	// ErrInvalidAmount indicates a non-positive transfer amount.
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidAmount, "transfer amount must be positive")
	// ErrInsufficientBalance indicates the sender cannot cover the transfer.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeInsufficientBalance, "insufficient balance")
)

// Asset is the metadata of one initialized asset ledger.
type Asset struct {
	ID          identity.ID
	Admin       identity.ID
	Name        string
	Symbol      string
	Decimals    uint32
	TotalSupply amount.Amount
	CreatedAt   time.Time
}

// InitializeInput is the caller request for Initialize.
type InitializeInput struct {
	Asset       identity.ID
	Admin       identity.ID
	Name        string
	Symbol      string
	TotalSupply amount.Amount
}

// InitializePayload is recorded by asset.initialized.
type InitializePayload struct {
	Admin       identity.ID   `json:"admin"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint32        `json:"decimals"`
	TotalSupply amount.Amount `json:"total_supply"`
}

// TransferInput is the caller request for Transfer.
type TransferInput struct {
	Asset  identity.ID
	From   identity.ID
	To     identity.ID
	Amount amount.Amount
}

// TransferPayload is recorded by asset.transferred.
type TransferPayload struct {
	From   identity.ID   `json:"from"`
	To     identity.ID   `json:"to"`
	Amount amount.Amount `json:"amount"`
}

// DecideInitialize validates a first-time initialization.
//
// Supply is checked before existence, so a bad supply on an initialized asset
// still reports INVALID_SUPPLY.
func DecideInitialize(initialized bool, in InitializeInput, now time.Time) command.Decision {
	if !in.TotalSupply.IsPositive() {
		return command.RejectErr(ErrInvalidSupply)
	}
	if initialized {
		return command.RejectErr(ErrAlreadyInitialized)
	}
	evt, err := event.New(event.AssetStream(in.Asset.String()), EventTypeInitialized, in.Admin.String(), now, InitializePayload{
		Admin:       in.Admin,
		Name:        strings.TrimSpace(in.Name),
		Symbol:      strings.TrimSpace(in.Symbol),
		Decimals:    Decimals,
		TotalSupply: in.TotalSupply,
	})
	if err != nil {
		return command.RejectErr(err)
	}
	return command.Accept(evt)
}

// FoldInitialize builds asset metadata from an asset.initialized event.
func FoldInitialize(assetID identity.ID, evt event.Event) (Asset, error) {
	if evt.Type != EventTypeInitialized {
		return Asset{}, fmt.Errorf("fold initialize: unexpected event type %s", evt.Type)
	}
	var payload InitializePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return Asset{}, fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return Asset{
		ID:          assetID,
		Admin:       payload.Admin,
		Name:        payload.Name,
		Symbol:      payload.Symbol,
		Decimals:    payload.Decimals,
		TotalSupply: payload.TotalSupply,
		CreatedAt:   evt.Timestamp,
	}, nil
}

// DecideTransfer validates a transfer against the loaded balances.
func DecideTransfer(in TransferInput, fromBalance, toBalance amount.Amount, now time.Time) command.Decision {
	if !in.Amount.IsPositive() {
		return command.RejectErr(ErrInvalidAmount)
	}
	if fromBalance.LessThan(in.Amount) {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeInsufficientBalance,
			Message: ErrInsufficientBalance.Message,
			Metadata: map[string]string{
				"holder":  in.From.String(),
				"balance": fromBalance.String(),
				"amount":  in.Amount.String(),
			},
		})
	}
	if in.From != in.To {
		if _, err := toBalance.Add(in.Amount); err != nil {
			return command.RejectErr(err)
		}
	}
	evt, err := event.New(event.AssetStream(in.Asset.String()), EventTypeTransferred, in.From.String(), now, TransferPayload{
		From:   in.From,
		To:     in.To,
		Amount: in.Amount,
	})
	if err != nil {
		return command.RejectErr(err)
	}
	return command.Accept(evt)
}

// DecodeTransfer reads the payload of an asset.transferred event.
func DecodeTransfer(evt event.Event) (TransferPayload, error) {
	if evt.Type != EventTypeTransferred {
		return TransferPayload{}, fmt.Errorf("decode transfer: unexpected event type %s", evt.Type)
	}
	var payload TransferPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return TransferPayload{}, fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return payload, nil
}

// ApplyTransfer returns the post-transfer balances of sender and recipient.
// A self transfer leaves the single balance unchanged.
func ApplyTransfer(fromBalance, toBalance amount.Amount, payload TransferPayload) (amount.Amount, amount.Amount, error) {
	if payload.From == payload.To {
		return fromBalance, fromBalance, nil
	}
	if fromBalance.LessThan(payload.Amount) {
		return amount.Amount{}, amount.Amount{}, ErrInsufficientBalance
	}
	nextFrom, err := fromBalance.Sub(payload.Amount)
	if err != nil {
		return amount.Amount{}, amount.Amount{}, err
	}
	nextTo, err := toBalance.Add(payload.Amount)
	if err != nil {
		return amount.Amount{}, amount.Amount{}, err
	}
	return nextFrom, nextTo, nil
}
