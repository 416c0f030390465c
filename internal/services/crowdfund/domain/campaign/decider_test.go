package campaign

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/amount"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

func mustAccept(t *testing.T, err error, events []event.Event) event.Event {
	t.Helper()

	if err != nil {
		t.Fatalf("decision rejected: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	return events[0]
}

func createInput(goal int64, deadline time.Time) CreateInput {
	return CreateInput{Owner: "alice", Goal: amount.New(goal), Deadline: deadline, Asset: "TST"}
}

func TestDecideCreate(t *testing.T) {
	d := DecideCreate(0, createInput(1000, deadline), now)
	evt := mustAccept(t, d.Err(), d.Events)
	if evt.Stream != "campaign/0" || evt.Type != EventTypeCreated || evt.ActorID != "alice" {
		t.Fatalf("event = %+v", evt)
	}

	c, err := Fold(Campaign{}, evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if c.ID != 0 || c.Owner != "alice" || c.Asset != "TST" || !c.Goal.Equal(amount.New(1000)) {
		t.Fatalf("campaign = %+v", c)
	}
	if !c.Deadline.Equal(deadline) || !c.CreatedAt.Equal(now) {
		t.Fatalf("times = %v/%v", c.Deadline, c.CreatedAt)
	}
	if !c.Raised.IsZero() || len(c.Donations) != 0 {
		t.Fatalf("fresh campaign has raised %s and %d donations", c.Raised, len(c.Donations))
	}
}

func TestDecideCreateRejections(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{name: "zero goal", in: createInput(0, deadline), want: ErrInvalidGoal},
		{name: "negative goal", in: createInput(-5, deadline), want: ErrInvalidGoal},
		{name: "goal checked first", in: createInput(0, now.Add(-time.Hour)), want: ErrInvalidGoal},
		{name: "deadline now", in: createInput(10, now), want: ErrInvalidDeadline},
		{name: "deadline past", in: createInput(10, now.Add(-time.Second)), want: ErrInvalidDeadline},
		{name: "deadline within the second", in: createInput(10, now.Add(500*time.Millisecond)), want: ErrInvalidDeadline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecideCreate(0, tt.in, now).Err()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecideCreateTruncatesDeadline(t *testing.T) {
	d := DecideCreate(0, createInput(10, now.Add(1500*time.Millisecond)), now)
	evt := mustAccept(t, d.Err(), d.Events)

	c, err := Fold(Campaign{}, evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if want := now.Add(time.Second); !c.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", c.Deadline, want)
	}
	if c.IsEnded(now) {
		t.Fatal("campaign ended at creation")
	}
}

func TestDecideDonate(t *testing.T) {
	c := fixture(100, 40)
	d := DecideDonate(c, "bob", amount.New(10), now)
	evt := mustAccept(t, d.Err(), d.Events)
	if evt.Stream != "campaign/2" || evt.Type != EventTypeDonated || evt.ActorID != "bob" {
		t.Fatalf("event = %+v", evt)
	}
	next, err := Fold(c, evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if !next.Raised.Equal(amount.New(50)) || !next.Donation("bob").Equal(amount.New(50)) {
		t.Fatalf("raised = %s donation = %s", next.Raised, next.Donation("bob"))
	}
	if !c.Raised.Equal(amount.New(40)) || !c.Donation("bob").Equal(amount.New(40)) {
		t.Fatal("fold mutated its input")
	}
}

func TestDecideDonateAfterGoalReachedIsAllowed(t *testing.T) {
	d := DecideDonate(fixture(100, 100), "carol", amount.New(1), now)
	if err := d.Err(); err != nil {
		t.Fatalf("over-funding must be accepted while open: %v", err)
	}
}

func TestDecideDonateRejections(t *testing.T) {
	tests := []struct {
		name  string
		c     Campaign
		value amount.Amount
		at    time.Time
		code  apperrors.Code
	}{
		{name: "zero", c: fixture(100, 0), value: amount.Zero(), at: now, code: apperrors.CodeInvalidAmount},
		{name: "negative", c: fixture(100, 0), value: amount.New(-1), at: now, code: apperrors.CodeInvalidAmount},
		{name: "amount checked first", c: fixture(100, 0), value: amount.Zero(), at: deadline, code: apperrors.CodeInvalidAmount},
		{name: "at deadline", c: fixture(100, 0), value: amount.New(1), at: deadline, code: apperrors.CodeCampaignEnded},
		{name: "raised overflow", c: Campaign{ID: 1, Goal: amount.New(1), Deadline: deadline, Raised: amount.Max()}, value: amount.New(1), at: now, code: apperrors.CodeArithmeticOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecideDonate(tt.c, "bob", tt.value, tt.at).Err()
			if got := apperrors.CodeOf(err); got != tt.code {
				t.Fatalf("code = %s, want %s (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestDecideRefund(t *testing.T) {
	c := fixture(100, 40)
	d := DecideRefund(c, "bob", deadline)
	evt := mustAccept(t, d.Err(), d.Events)
	if evt.Type != EventTypeRefunded {
		t.Fatalf("event type = %s", evt.Type)
	}
	next, err := Fold(c, evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if !next.Raised.IsZero() {
		t.Fatalf("raised = %s, want 0", next.Raised)
	}
	if value, ok := next.Donations["bob"]; !ok || !value.IsZero() {
		t.Fatalf("refunded donor entry = %s, %v; want zero entry", value, ok)
	}
	if err := DecideRefund(next, "bob", deadline).Err(); !errors.Is(err, ErrNoRefundableDonation) {
		t.Fatalf("second refund err = %v, want %v", err, ErrNoRefundableDonation)
	}
}

func TestDecideRefundRejections(t *testing.T) {
	tests := []struct {
		name  string
		c     Campaign
		donor identity.ID
		at    time.Time
		want  error
	}{
		{name: "before deadline", c: fixture(100, 40), donor: "bob", at: deadline.Add(-time.Second), want: ErrNotEnded},
		{name: "goal reached", c: fixture(100, 100), donor: "bob", at: deadline, want: ErrGoalReached},
		{name: "never donated", c: fixture(100, 40), donor: "carol", at: deadline, want: ErrNoRefundableDonation},
		{name: "not ended checked before donor", c: fixture(100, 40), donor: "carol", at: now, want: ErrNotEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecideRefund(tt.c, tt.donor, tt.at).Err()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReplay(t *testing.T) {
	created := DecideCreate(4, createInput(100, deadline), now).Events[0]
	c, err := Fold(Campaign{}, created)
	if err != nil {
		t.Fatalf("fold create: %v", err)
	}
	donated := DecideDonate(c, "bob", amount.New(30), now).Events[0]
	c, err = Fold(c, donated)
	if err != nil {
		t.Fatalf("fold donate: %v", err)
	}
	refunded := DecideRefund(c, "bob", deadline).Events[0]

	replayed, err := Replay([]event.Event{created, donated, refunded})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.ID != 4 || !replayed.Raised.IsZero() || !replayed.Donation("bob").IsZero() {
		t.Fatalf("replayed = %+v", replayed)
	}
	if err := replayed.Validate(); err != nil {
		t.Fatalf("validate replayed: %v", err)
	}

	if _, err := Replay([]event.Event{donated}); err == nil {
		t.Fatal("expected error when stream does not start with creation")
	}
	bad := created
	bad.Stream = "asset/TST"
	if _, err := Replay([]event.Event{bad}); err == nil {
		t.Fatal("expected error for non-campaign stream")
	}
	unknown := created
	unknown.Type = "campaign.withdrawn"
	if _, err := Fold(c, unknown); err == nil {
		t.Fatal("expected error for unsupported event type")
	}
}
