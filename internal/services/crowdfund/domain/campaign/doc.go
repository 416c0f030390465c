// Package campaign holds the crowdfunding campaign rules: creation, donation
// bookkeeping, goal and deadline evaluation, and refund eligibility.
//
// Status is derived, never stored. A campaign is Open before its deadline;
// at or after the deadline it is EndedSuccessful when raised covers the goal
// and EndedFailed otherwise. Only EndedFailed campaigns refund, so an
// EndedSuccessful campaign never leaves that state.
//
// Deciders (DecideCreate, DecideDonate, DecideRefund) are pure and emit
// events; Fold turns those events into the next record.
package campaign
