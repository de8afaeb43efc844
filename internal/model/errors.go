package model

import "errors"

// ErrLedgerConflict is returned by a ledger store when a version-checked
// write loses a race. The orchestrator re-reads and retries a bounded
// number of times; callers never see it directly.
var ErrLedgerConflict = errors.New("ledger version conflict")

// RejectionReason is the closed set of reasons a submit or removal can be
// refused. Every rejection leaves the ledger unchanged.
type RejectionReason string

const (
	RejectSelfEngagement    RejectionReason = "SELF_ENGAGEMENT"
	RejectCooldownActive    RejectionReason = "COOLDOWN_ACTIVE"
	RejectSwitchAfterGrace  RejectionReason = "SWITCH_AFTER_GRACE"
	RejectEngagementCap     RejectionReason = "ENGAGEMENT_CAP_REACHED"
	RejectCloutCap          RejectionReason = "CLOUT_CAP_REACHED"
	RejectVideoCloutCeiling RejectionReason = "VIDEO_CLOUT_CEILING"
	RejectInsufficientHype  RejectionReason = "INSUFFICIENT_HYPE_RATING"
	RejectRemovalAfterGrace RejectionReason = "REMOVAL_AFTER_GRACE"
	RejectNothingToRemove   RejectionReason = "NOTHING_TO_REMOVE"
	RejectTempBlocked       RejectionReason = "TEMP_BLOCKED"
)

// Rejection is a validation refusal from the orchestrator. It is an error
// so it flows through the usual return path, but callers should match on
// Reason, not the message text.
type Rejection struct {
	Reason  RejectionReason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Reject builds a Rejection.
func Reject(reason RejectionReason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
