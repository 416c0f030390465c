// Package command defines the outcome contract shared by ledger and campaign
// deciders.
//
// Deciders are pure: they read current state, a clock reading and caller
// input, and either accept with events or reject with a coded reason. Nothing
// is persisted until the caller folds and stores an accepted decision.
package command

import (
	"errors"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/event"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code     apperrors.Code
	Message  string
	Metadata map[string]string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// RejectErr converts a domain error into a rejection decision.
func RejectErr(err error) Decision {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return Reject(Rejection{Code: domainErr.Code, Message: domainErr.Message, Metadata: domainErr.Metadata})
	}
	return Reject(Rejection{Code: apperrors.CodeUnknown, Message: err.Error()})
}

// Validate checks that the decision is either accepted or rejected.
func (d Decision) Validate() error {
	if len(d.Events) == 0 && len(d.Rejections) == 0 {
		return errors.New("decision must contain events or rejections")
	}
	if len(d.Events) > 0 && len(d.Rejections) > 0 {
		return errors.New("decision cannot both accept and reject")
	}
	return nil
}

// Accepted reports whether the decision emitted events without rejections.
func (d Decision) Accepted() bool {
	return len(d.Rejections) == 0 && len(d.Events) > 0
}

// Err returns the first rejection as a coded error, or nil when accepted.
func (d Decision) Err() error {
	if len(d.Rejections) == 0 {
		if len(d.Events) == 0 {
			return errors.New("decision is empty")
		}
		return nil
	}
	first := d.Rejections[0]
	return apperrors.WithMetadata(first.Code, first.Message, first.Metadata)
}
