package model

import "time"

// EngagementRequest is the API request body for submitting an engagement.
type EngagementRequest struct {
	VideoID   string `json:"videoId"`
	UserID    string `json:"userId"`
	CreatorID string `json:"creatorId"`
	Tier      string `json:"tier"`
	Direction string `json:"direction"`
	IsBurst   bool   `json:"isBurst,omitempty"`
}

// EngagementRemoveRequest is the API request body for removing all
// engagement on a video (grace period only).
type EngagementRemoveRequest struct {
	VideoID string `json:"videoId"`
	UserID  string `json:"userId"`
}

// LedgerResponse is the API response for a ledger lookup.
type LedgerResponse struct {
	VideoID           string     `json:"videoId"`
	UserID            string     `json:"userId"`
	Side              string     `json:"side"`
	TotalEngagements  int        `json:"totalEngagements"`
	HypeEngagements   int        `json:"hypeEngagements"`
	CoolEngagements   int        `json:"coolEngagements"`
	TotalCloutGiven   int        `json:"totalCloutGiven"`
	FirstEngagementAt *time.Time `json:"firstEngagementAt,omitempty"`
	WithinGracePeriod bool       `json:"withinGracePeriod"`
}

// VideoResponse is the API response for a video counter lookup.
type VideoResponse struct {
	VideoID     string    `json:"videoId"`
	CreatorID   string    `json:"creatorId,omitempty"`
	HypeCount   int       `json:"hypeCount"`
	CoolCount   int       `json:"coolCount"`
	TotalClout  int       `json:"totalClout"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Video is a video counter record row.
type Video struct {
	VideoID     string    `json:"videoId"`
	CreatorID   string    `json:"creatorId"`
	HypeCount   int       `json:"hypeCount"`
	CoolCount   int       `json:"coolCount"`
	TotalClout  int       `json:"totalClout"`
	Deleted     bool      `json:"-"`
	CreatedAt   time.Time `json:"-"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// VideoDeltas are the atomic counter adjustments the orchestrator asks the
// video record to apply. All fields are signed; a grace-window reversal
// sends negatives.
type VideoDeltas struct {
	Hype  int
	Cool  int
	Clout int
}

// Inverse returns the compensating deltas.
func (d VideoDeltas) Inverse() VideoDeltas {
	return VideoDeltas{Hype: -d.Hype, Cool: -d.Cool, Clout: -d.Clout}
}

// IsZero reports whether no adjustment is requested.
func (d VideoDeltas) IsZero() bool {
	return d.Hype == 0 && d.Cool == 0 && d.Clout == 0
}

// User is an account row as the engagement core sees it: a regenerating
// hype-rating balance, the clout ledger, tier, and reputation snapshot.
type User struct {
	UserID        string     `json:"userId"`
	Tier          Tier       `json:"-"`
	HypeRating    float64    `json:"hypeRating"`
	MaxHypeRating float64    `json:"maxHypeRating"`
	RawClout      int64      `json:"rawClout"`
	FirstSeen     time.Time  `json:"-"`
	LastActive    time.Time  `json:"-"`
	LastPostedAt  *time.Time `json:"-"`
}

// UserResponse is the API response for a user standing lookup.
type UserResponse struct {
	UserID               string  `json:"userId"`
	Tier                 string  `json:"tier"`
	HypeRating           float64 `json:"hypeRating"`
	RawClout             int64   `json:"rawClout"`
	EffectiveClout       int64   `json:"effectiveClout"`
	ReputationMultiplier float64 `json:"reputationMultiplier"`
	AccountAge           int     `json:"accountAge"`
}

// StatsResponse is the API response for platform statistics.
type StatsResponse struct {
	TotalVideos      int   `json:"totalVideos"`
	TotalUsers       int   `json:"totalUsers"`
	TotalEngagements int64 `json:"totalEngagements"`
	TotalHypes       int64 `json:"totalHypes"`
	TotalCools       int64 `json:"totalCools"`
	TotalClout       int64 `json:"totalClout"`
	ActiveUsers24h   int   `json:"activeUsers24h"`
}
