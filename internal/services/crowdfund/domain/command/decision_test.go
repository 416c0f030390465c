package command

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
)

func testEvent(t *testing.T) event.Event {
	t.Helper()

	evt, err := event.New("campaign/0", "campaign.created", "owner", time.Unix(1_700_000_000, 0), map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return evt
}

func TestAccept(t *testing.T) {
	d := Accept(testEvent(t))
	if !d.Accepted() {
		t.Fatal("expected accepted decision")
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestRejectErrKeepsCodeAndMetadata(t *testing.T) {
	source := apperrors.WithMetadata(apperrors.CodeCampaignEnded, "campaign has ended", map[string]string{"campaign_id": "3"})
	d := RejectErr(source)
	if d.Accepted() {
		t.Fatal("expected rejection")
	}
	err := d.Err()
	if !errors.Is(err, source) {
		t.Fatalf("err = %v, want code %s", err, source.Code)
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) || domainErr.Metadata["campaign_id"] != "3" {
		t.Fatalf("metadata not carried: %#v", err)
	}
}

func TestRejectErrUnknown(t *testing.T) {
	err := RejectErr(errors.New("plain")).Err()
	if apperrors.CodeOf(err) != apperrors.CodeUnknown {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeUnknown)
	}
}

func TestValidateRejectsEmptyAndMixed(t *testing.T) {
	if err := (Decision{}).Validate(); err == nil {
		t.Fatal("expected empty decision error")
	}
	if err := (Decision{}).Err(); err == nil {
		t.Fatal("expected empty decision err")
	}
	mixed := Decision{Events: []event.Event{testEvent(t)}, Rejections: []Rejection{{Code: apperrors.CodeInvalidAmount}}}
	if err := mixed.Validate(); err == nil {
		t.Fatal("expected mixed decision error")
	}
	if mixed.Accepted() {
		t.Fatal("mixed decision must not be accepted")
	}
}
