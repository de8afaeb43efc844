package model

import "time"

// EngagementSide is the direction a ledger is committed to. A ledger holds
// hype-only or cool-only engagements; the side may be switched once while
// the grace period is open.
type EngagementSide string

const (
	SideNone EngagementSide = ""
	SideHype EngagementSide = "hype"
	SideCool EngagementSide = "cool"
)

// ParseSide converts a wire-format direction to an EngagementSide.
func ParseSide(s string) (EngagementSide, bool) {
	switch s {
	case "hype":
		return SideHype, true
	case "cool":
		return SideCool, true
	}
	return SideNone, false
}

// Opposite returns the other engagement direction.
func (s EngagementSide) Opposite() EngagementSide {
	switch s {
	case SideHype:
		return SideCool
	case SideCool:
		return SideHype
	}
	return SideNone
}

// EngagementLedger is the per-(video,user) aggregate root. Counters only
// move through the orchestrator; VisualGiven and HypeRatingSpent record
// exactly what was pushed to the external records so a grace-window
// reversal can emit precise inverse deltas.
type EngagementLedger struct {
	VideoID string `json:"videoId"`
	UserID  string `json:"userId"`

	TotalEngagements int `json:"totalEngagements"`
	HypeEngagements  int `json:"hypeEngagements"`
	CoolEngagements  int `json:"coolEngagements"`
	TotalCloutGiven  int `json:"totalCloutGiven"`
	VisualGiven      int `json:"visualGiven"`

	HypeRatingSpent float64 `json:"-"`

	FirstEngagementAt *time.Time `json:"firstEngagementAt,omitempty"`
	LastEngagementAt  time.Time  `json:"lastEngagementAt"`

	// Version is the store's optimistic-concurrency token. Zero for a
	// ledger that has never been persisted.
	Version int64 `json:"-"`
}

// NewLedger returns the zero-state ledger for a (video,user) pair.
func NewLedger(videoID, userID string) *EngagementLedger {
	return &EngagementLedger{VideoID: videoID, UserID: userID}
}

// Side returns the direction the ledger is committed to, or SideNone for
// a zero-state ledger.
func (l *EngagementLedger) Side() EngagementSide {
	switch {
	case l.HypeEngagements > 0:
		return SideHype
	case l.CoolEngagements > 0:
		return SideCool
	}
	return SideNone
}

// IsWithinGracePeriod reports whether the side-switch/removal window is
// still open at the given instant.
func (l *EngagementLedger) IsWithinGracePeriod(now time.Time, grace time.Duration) bool {
	if l.FirstEngagementAt == nil {
		return false
	}
	return now.Sub(*l.FirstEngagementAt) < grace
}

// Reset returns the ledger to the zero state, keeping identity and the
// store version so the reset can be persisted as an update.
func (l *EngagementLedger) Reset() {
	l.TotalEngagements = 0
	l.HypeEngagements = 0
	l.CoolEngagements = 0
	l.TotalCloutGiven = 0
	l.VisualGiven = 0
	l.HypeRatingSpent = 0
	l.FirstEngagementAt = nil
	l.LastEngagementAt = time.Time{}
}

// IsZero reports whether the ledger is in the zero state.
func (l *EngagementLedger) IsZero() bool {
	return l.TotalEngagements == 0 && l.FirstEngagementAt == nil
}

// EngagementOutcome is the transient projection of one applied engagement.
// CloutAwarded is signed: negative for a cool engagement.
type EngagementOutcome struct {
	Success         bool   `json:"success"`
	CloutAwarded    int    `json:"cloutAwarded"`
	VisualIncrement int    `json:"visualIncrement"`
	NewHypeCount    int    `json:"newHypeCount"`
	NewCoolCount    int    `json:"newCoolCount"`
	IsFirstTapBonus bool   `json:"isFirstTapBonus"`
	Message         string `json:"message,omitempty"`
}
