package ledger

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
)

var now = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

func initInput(supply amount.Amount) InitializeInput {
	return InitializeInput{Asset: "TST", Admin: "admin", Name: " Test Token ", Symbol: "TST", TotalSupply: supply}
}

func TestDecideInitialize(t *testing.T) {
	d := DecideInitialize(false, initInput(amount.New(1000)), now)
	if err := d.Err(); err != nil {
		t.Fatalf("decide: %v", err)
	}
	evt := d.Events[0]
	if evt.Stream != event.AssetStream("TST") || evt.Type != EventTypeInitialized || evt.ActorID != "admin" {
		t.Fatalf("event = %+v", evt)
	}

	asset, err := FoldInitialize("TST", evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if asset.Decimals != Decimals || asset.Name != "Test Token" || !asset.TotalSupply.Equal(amount.New(1000)) {
		t.Fatalf("asset = %+v", asset)
	}
	if !asset.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", asset.CreatedAt, now)
	}
}

func TestDecideInitializeRejections(t *testing.T) {
	tests := []struct {
		name        string
		initialized bool
		supply      amount.Amount
		want        error
	}{
		{name: "zero supply", supply: amount.Zero(), want: ErrInvalidSupply},
		{name: "negative supply", supply: amount.New(-1), want: ErrInvalidSupply},
		{name: "supply checked first", initialized: true, supply: amount.Zero(), want: ErrInvalidSupply},
		{name: "already initialized", initialized: true, supply: amount.New(1), want: ErrAlreadyInitialized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecideInitialize(tt.initialized, initInput(tt.supply), now).Err()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFoldInitializeRejectsOtherEvents(t *testing.T) {
	evt, err := event.New(event.AssetStream("TST"), EventTypeTransferred, "admin", now, TransferPayload{})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if _, err := FoldInitialize("TST", evt); err == nil {
		t.Fatal("expected error")
	}
	if _, err := DecodeTransfer(DecideInitialize(false, initInput(amount.New(1)), now).Events[0]); err == nil {
		t.Fatal("expected decode error for initialize event")
	}
}

func TestTransferRoundTrip(t *testing.T) {
	in := TransferInput{Asset: "TST", From: "alice", To: "bob", Amount: amount.New(30)}
	d := DecideTransfer(in, amount.New(100), amount.New(5), now)
	if err := d.Err(); err != nil {
		t.Fatalf("decide: %v", err)
	}
	payload, err := DecodeTransfer(d.Events[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	from, to, err := ApplyTransfer(amount.New(100), amount.New(5), payload)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !from.Equal(amount.New(70)) || !to.Equal(amount.New(35)) {
		t.Fatalf("balances = %s/%s, want 70/35", from, to)
	}
}

func TestDecideTransferRejections(t *testing.T) {
	tests := []struct {
		name  string
		value amount.Amount
		from  amount.Amount
		to    amount.Amount
		code  apperrors.Code
	}{
		{name: "zero", value: amount.Zero(), from: amount.New(10), to: amount.Zero(), code: apperrors.CodeInvalidAmount},
		{name: "negative", value: amount.New(-1), from: amount.New(10), to: amount.Zero(), code: apperrors.CodeInvalidAmount},
		{name: "insufficient", value: amount.New(11), from: amount.New(10), to: amount.Zero(), code: apperrors.CodeInsufficientBalance},
		{name: "recipient overflow", value: amount.New(1), from: amount.New(10), to: amount.Max(), code: apperrors.CodeArithmeticOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := TransferInput{Asset: "TST", From: "alice", To: "bob", Amount: tt.value}
			err := DecideTransfer(in, tt.from, tt.to, now).Err()
			if got := apperrors.CodeOf(err); got != tt.code {
				t.Fatalf("code = %s, want %s (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestSelfTransferKeepsBalance(t *testing.T) {
	in := TransferInput{Asset: "TST", From: "alice", To: "alice", Amount: amount.New(10)}
	d := DecideTransfer(in, amount.New(10), amount.New(10), now)
	if err := d.Err(); err != nil {
		t.Fatalf("decide: %v", err)
	}
	payload, err := DecodeTransfer(d.Events[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	from, to, err := ApplyTransfer(amount.New(10), amount.New(10), payload)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !from.Equal(amount.New(10)) || !to.Equal(amount.New(10)) {
		t.Fatalf("balances = %s/%s, want 10/10", from, to)
	}
}

func TestApplyTransferRechecksBalance(t *testing.T) {
	_, _, err := ApplyTransfer(amount.New(1), amount.Zero(), TransferPayload{From: "alice", To: "bob", Amount: amount.New(2)})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want %v", err, ErrInsufficientBalance)
	}
}
